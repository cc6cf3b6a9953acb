// Command vmmgr translates a list of logical addresses through a simulated
// demand-paged virtual memory and reports TLB and page fault statistics.
package main

import "github.com/sarchlab/vmmgr/vmmgr/cmd"

func main() {
	cmd.Execute()
}
