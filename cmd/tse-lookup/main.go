package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/uhyunpark/tseutils/params"
	"github.com/uhyunpark/tseutils/pkg/tseclient"
	"github.com/uhyunpark/tseutils/pkg/tsetmc"
)

func main() {
	search := flag.String("search", "", "search instruments by ticker or name")
	code := flag.String("code", "", "TSETMC code to look up")
	limits := flag.Bool("bestlimits", false, "with -code: print best limits instead of identity")
	raw := flag.Bool("raw", false, "with -code: print the undecoded TSETMC response")
	list := flag.Bool("list", false, "print the full instruments list from the TseClient service")
	flag.Parse()

	cfg := params.LoadFromEnv("")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := tsetmc.NewClient(cfg.Tsetmc.Domain, cfg.Tsetmc.Timeout,
		tsetmc.WithRetries(cfg.Tsetmc.Retries, 200*time.Millisecond))

	var (
		out any
		err error
	)
	switch {
	case *list:
		tc := tseclient.NewClient(cfg.Tsetmc.Timeout, tseclient.WithURL(cfg.Tsetmc.TseClientURL))
		instruments, indices, lerr := tc.InstrumentsList(ctx)
		out, err = map[string]any{"instruments": instruments, "indices": indices}, lerr
	case *search != "":
		out, err = client.InstrumentSearch(ctx, *search)
	case *code != "" && *raw:
		out, err = client.InstrumentIdentityRaw(ctx, *code)
	case *code != "" && *limits:
		out, err = client.BestLimits(ctx, *code)
	case *code != "":
		out, err = client.InstrumentIdentity(ctx, *code)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
