// Command safas is the SAFAS assembler and REPL driver.
package main

func main() {
	Execute()
}
