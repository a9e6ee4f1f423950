// cmd/ika/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"namur-service/internal/driver"
	"namur-service/internal/model"
	"namur-service/internal/protocol"
	"namur-service/internal/transport"
	pkgdriver "namur-service/pkg/driver"
)

const defaultPort = 23

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run reads the instrument once and prints the reading as indented JSON
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("ika", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: ika [flags] address")
		fmt.Fprintln(stderr, "Read device status. address is host[:port] or a serial device path.")
		flags.PrintDefaults()
	}

	port := flags.IntP("port", "p", defaultPort, "port of the device when address has none")
	kind := flags.StringP("type", "t", string(model.InstrumentOverheadStirrer), "type of device: overhead, hotplate, shaker or vacuum")
	noInfo := flags.BoolP("no-info", "n", false, "exclude device information, reduces communication overhead")
	timeout := flags.Duration("timeout", 10*time.Second, "overall timeout")
	verbose := flags.BoolP("verbose", "v", false, "log transport activity to stderr")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	instrumentType, ok := model.ParseInstrumentType(*kind)
	if !ok {
		fmt.Fprintf(stderr, "Unsupported device type: %s\n", *kind)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if l, err := cfg.Build(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	registry := driver.NewDefaultRegistry(logger)
	instrument, _, err := registry.Open(instrumentType, withPort(flags.Arg(0), *port), pkgdriver.Options{},
		transport.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer instrument.Close()

	result, err := read(ctx, instrument, !*noInfo)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func read(ctx context.Context, instrument pkgdriver.Instrument, withInfo bool) (map[string]any, error) {
	reading, err := instrument.Get(ctx)
	if err != nil {
		return nil, err
	}

	result := map[string]any(reading)
	if withInfo {
		info, err := instrument.GetInfo(ctx)
		if err != nil {
			return nil, err
		}
		result["info"] = info
	}
	return result, nil
}

// withPort appends the default port to a bare host
func withPort(address string, port int) string {
	if protocol.IsSerialPath(address) || strings.Contains(address, ":") {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(port))
}
