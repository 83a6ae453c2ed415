// ledgersite は会計事務所サイトのコンテンツ配信APIを提供する。
//
//	ledgersite [serve|migrate|slugs|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/ledgersite/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
