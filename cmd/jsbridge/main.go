// Command jsbridge runs entry functions of JavaScript modules and manages
// the module store.
package main

func main() {
	Execute()
}
