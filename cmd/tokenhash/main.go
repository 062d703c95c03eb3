// Command tokenhash prints the Argon2id hash of an admin token for use as
// ADMIN_TOKEN_HASH. The token is read from stdin so it stays out of shell
// history; pass -generate to create a fresh random token instead.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
)

func main() {
	generate := flag.Bool("generate", false, "Generate a random token and print it with its hash")
	flag.Parse()

	var token string
	if *generate {
		var err error
		token, err = auth.GenerateUserToken()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate token:", err)
			os.Exit(1)
		}
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "read token from stdin:", err)
			os.Exit(1)
		}
		token = strings.TrimSpace(line)
	}

	if token == "" {
		fmt.Fprintln(os.Stderr, "token is empty")
		os.Exit(1)
	}

	hash, err := auth.HashToken(token)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash token:", err)
		os.Exit(1)
	}

	if *generate {
		fmt.Printf("ADMIN_TOKEN=%s\n", token)
	}
	fmt.Printf("ADMIN_TOKEN_HASH=%s\n", hash)
}
