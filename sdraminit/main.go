// Command sdraminit generates and runs SDRAM bring-up sequences.
package main

import "github.com/sarchlab/sdraminit/sdraminit/cmd"

func main() {
	cmd.Execute()
}
