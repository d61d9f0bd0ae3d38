// Command hashpw prints the bcrypt hash to use as COORDINATOR_PASSWORD_HASH.
//
//	hashpw 'my coordinator password'
package main

import (
	"fmt"
	"os"

	"github.com/mmynk/tabsettle/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
