// Command bookfund runs imports and reports against the textbook fund
// without the HTTP server.
package main

func main() {
	Execute()
}
