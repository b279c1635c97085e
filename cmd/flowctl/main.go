// Command flowctl inspects and exports freelanceflow workspaces from the
// terminal.
package main

func main() {
	Execute()
}
