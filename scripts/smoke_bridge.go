//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ZanzyTHEbar/toolbridge/bridge/client"
)

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

// RunSmokeBridge executes basic checks against a live bridge server. The
// endpoint comes from BRIDGE_ENDPOINT or the built-in default.
func RunSmokeBridge() {
	fmt.Println("Smoke test: bridge server")

	c := client.New(client.Settings{
		MaxRetries:  2,
		RetryDelay:  200 * time.Millisecond,
		CallTimeout: 10 * time.Second,
	})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	must(c.Health(ctx), "health")
	fmt.Println("OK: health")

	tools, err := c.ListTools(ctx)
	must(err, "list tools")
	fmt.Printf("OK: %d tools exposed\n", len(tools))

	if len(tools) > 0 {
		schema, serr := c.ToolSchema(ctx, tools[0])
		must(serr, "tool schema")
		fmt.Printf("OK: schema for %s has %d fields\n", tools[0], len(schema))
	}
}
