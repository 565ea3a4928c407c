// Command formsync flattens HTML forms into value trees, applies value files
// back onto forms, scaffolds forms from OpenAPI schemas and serves them.
package main

func main() {
	Execute()
}
