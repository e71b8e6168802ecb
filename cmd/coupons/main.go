// Command coupons runs the betting-tips subscription server and its
// maintenance tasks.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
