// Command ezdb-client issues a single instruction to a server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ogier/pflag"

	"github.com/ezdb/ezdb-go/client"
	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
)

func main() {
	pflag.Usage = printUsage

	username := pflag.StringP("user", "u", "", "username to authenticate as")
	password := pflag.StringP("pass", "p", "", "password to authenticate with")
	dataFile := pflag.StringP("data", "d", "", "file holding the instruction data, - for stdin")
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 3 || len(args) > 4 {
		eprintln("Wrong number of arguments")
		printUsage()
		os.Exit(1)
	}
	if *username == "" || *password == "" {
		eprintln("A username and password are required")
		os.Exit(1)
	}

	serverKey, err := crypto.KeyFromBase64(args[1])
	if err != nil {
		eprintln("Server key has improper formatting")
		os.Exit(1)
	}

	op, err := protocol.OpcodeByName(args[2])
	if err != nil {
		eprintln("Unknown operation:", args[2])
		os.Exit(1)
	}
	ins := protocol.Instruction{Op: op}
	if len(args) == 4 {
		ins.Arg = args[3]
	}

	data, err := readData(*dataFile)
	if err != nil {
		eprintln("Error reading data:", err)
		os.Exit(1)
	}

	keys, err := crypto.GenerateKeypair(nil)
	if err != nil {
		eprintln("Error generating keypair:", err)
		os.Exit(1)
	}

	c, err := client.New(client.Config{
		Address:    args[0],
		StaticKeys: keys,
		ServerKey:  &serverKey,
		Username:   *username,
		Password:   *password,
	})
	if err != nil {
		eprintln("Error configuring client:", err)
		os.Exit(1)
	}

	payload, err := c.Do(ins, data)
	if err != nil {
		eprintln("Error ("+client.Classify(err).String()+"):", err)
		os.Exit(1)
	}
	if payload != nil {
		os.Stdout.Write(payload)
		fmt.Println()
	}
}

func readData(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func eprintln(a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
}

func printUsage() {
	eprintln("Usage: " + os.Args[0] + " [OPTION]... SERVER:PORT SERVER_PUBKEY OPERATION [ARG]")
	eprintln("Flags:")
	pflag.PrintDefaults()
	eprintln("Example:")
	eprintln("    " + os.Args[0] + " -u admin -p hunter2 localhost:9557 1rwvlEQkF6vL4jA1gRzlTM7I3tuZHtdq8qkLMwBs8Uw= query products -d filter.txt")
}
