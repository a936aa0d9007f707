// The main package for the permitbot executable.
package main

import (
	"github.com/permitwatch/permit-crawler/cmd"
)

func main() {
	cmd.Execute()
}
