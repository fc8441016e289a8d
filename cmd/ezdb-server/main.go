// Command ezdb-server runs a database node on a TCP listener.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/ogier/pflag"

	"github.com/ezdb/ezdb-go/crypto"
	"github.com/ezdb/ezdb-go/protocol"
	"github.com/ezdb/ezdb-go/server"
	"github.com/ezdb/ezdb-go/store"
)

func main() {
	pflag.Usage = printUsage

	keyB64 := pflag.StringP("key", "k", "", "base64 static private key (generated when omitted)")
	adminUser := pflag.StringP("admin-user", "u", "admin", "username of the seeded admin account")
	adminPass := pflag.StringP("admin-pass", "p", "", "password of the seeded admin account")
	maxConns := pflag.IntP("max-conns", "m", 64, "maximum concurrent connections")
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 1 {
		eprintln("Expected exactly one listen address")
		printUsage()
		os.Exit(1)
	}
	if *adminPass == "" {
		eprintln("An admin password is required (--admin-pass)")
		os.Exit(1)
	}

	keys, err := loadKeys(*keyB64)
	if err != nil {
		eprintln("Error loading static key:", err)
		os.Exit(1)
	}
	eprintln("Public key:", keys.Pub.String())

	st := store.New()
	st.AddUser(*adminUser, *adminPass, protocol.User{Admin: true})

	srv, err := server.New(server.Config{
		StaticKeys:  keys,
		Credentials: st,
		Authorizer:  st,
		Executor:    st,
		MaxConns:    *maxConns,
	})
	if err != nil {
		eprintln("Error configuring server:", err)
		os.Exit(1)
	}

	l, err := net.Listen("tcp", args[0])
	if err != nil {
		eprintln("Error listening on", args[0]+":", err)
		os.Exit(1)
	}
	if err := srv.Serve(l); err != nil {
		eprintln("Server stopped:", err)
		os.Exit(1)
	}
}

func loadKeys(b64 string) (crypto.KeyPair, error) {
	if b64 == "" {
		return crypto.GenerateKeypair(nil)
	}
	priv, err := crypto.KeyFromBase64(b64)
	if err != nil {
		return crypto.KeyPair{}, err
	}
	return crypto.NewKeyPair(priv)
}

func eprintln(a ...interface{}) {
	fmt.Fprintln(os.Stderr, a...)
}

func printUsage() {
	eprintln("Usage: " + os.Args[0] + " [OPTION]... LISTEN_ADDR")
	eprintln("Flags:")
	pflag.PrintDefaults()
	eprintln("Example:")
	eprintln("    " + os.Args[0] + " --admin-pass hunter2 0.0.0.0:9557")
}
