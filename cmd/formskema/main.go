// Command formskema extracts validated JSON records from HTML and XML form
// documents.
package main

func main() {
	Execute()
}
