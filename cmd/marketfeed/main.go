// Command marketfeed is the CLI entry point: it turns flags into a
// model.Settings, wires a default transport/reader stack rooted at a data
// folder on disk, and runs the engine until every subscription's sources
// are exhausted (backtest) or the process is interrupted (live).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/urfave/cli/v2"

	"github.com/marketfeed/ingest/cache"
	"github.com/marketfeed/ingest/engine"
	"github.com/marketfeed/ingest/model"
	"github.com/marketfeed/ingest/reader"
	"github.com/marketfeed/ingest/tools/log"
	"github.com/marketfeed/ingest/transport"
)

func main() {
	app := &cli.App{
		Name:     "marketfeed",
		HelpName: "marketfeed",
		Usage:    "Time-synchronized multi-source market data ingestion",
		Commands: []*cli.Command{
			runCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:     "run",
		HelpName: "run",
		Usage:    "Subscribe to one or more symbols and stream synchronized time slices to stdout",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "ticker:market:resolution, repeatable (eg. AAPL:nasdaq:1m)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "data-folder",
				Usage: "root folder for local_file transport lookups",
				Value: "data",
			},
			&cli.StringFlag{
				Name:  "cache-folder",
				Usage: "folder holding the remote_file content cache",
				Value: ".cache",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "worker pool size (0 = auto)",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "tick-limit",
				Value: 250,
			},
			&cli.IntFlag{
				Name:  "second-limit",
				Value: 250,
			},
			&cli.IntFlag{
				Name:  "minute-limit",
				Value: 10000,
			},
			&cli.BoolFlag{
				Name:  "fill-forward",
				Usage: "synthesize points across gaps at the finest active resolution",
				Value: true,
			},
			&cli.Float64Flag{
				Name:  "rest-rate",
				Usage: "requests per second allowed against the rest transport",
				Value: 5,
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	var configs []model.SubscriptionDataConfig
	for _, spec := range c.StringSlice("symbol") {
		config, err := parseSymbolSpec(spec)
		if err != nil {
			return err
		}
		config.FillForward = c.Bool("fill-forward")
		configs = append(configs, config)
	}

	settings := model.DefaultSettings()
	settings.DataFolder = c.String("data-folder")
	settings.CacheFolder = c.String("cache-folder")
	settings.ThreadCountOverride = c.Int("workers")
	settings.TickLimit = c.Int("tick-limit")
	settings.SecondLimit = c.Int("second-limit")
	settings.MinuteLimit = c.Int("minute-limit")

	cacheStore, err := cache.FromFile(settings.CacheFolder + "/remote_file.db")
	if err != nil {
		return fmt.Errorf("marketfeed: opening remote file cache: %w", err)
	}
	defer cacheStore.Close()

	transports := transport.NewRegistry()
	transports.Register(model.TransportLocalFile, transport.LocalFile{})
	transports.Register(model.TransportRemoteFile, transport.NewRemoteFile(resty.New(), cacheStore))
	transports.Register(model.TransportRest, transport.NewREST(resty.New(), c.Float64("rest-rate")))
	transports.Register(model.TransportZipEntry, transport.ZipEntry{})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resolveSource := func(config model.SubscriptionDataConfig, day int) ([]model.SubscriptionDataSource, bool) {
		if day > 0 {
			return nil, false // single-file-per-symbol layout: only day 0 has a source
		}
		path := fmt.Sprintf("%s/%s/%s/%s.csv", settings.DataFolder, config.Symbol.Market, config.Resolution, config.Symbol.Ticker)
		return []model.SubscriptionDataSource{{Locator: path, Transport: model.TransportLocalFile, Format: model.FormatText}}, true
	}
	openReader := func(source model.SubscriptionDataSource, onReaderError func(error)) (reader.Reader, error) {
		stream, err := transports.Open(ctx, source)
		if err != nil {
			return nil, err
		}
		return reader.NewText(stream, parseCSVLine, onReaderError), nil
	}

	eng, err := engine.New(settings, resolveSource, openReader,
		engine.WithAlgorithmCallbacks(stdoutCallbacks{}))
	if err != nil {
		return err
	}

	for _, config := range configs {
		if err := eng.AddSubscription(ctx, config); err != nil {
			return err
		}
	}

	return eng.Run(ctx)
}

// parseSymbolSpec accepts "ticker:market:resolution", eg "AAPL:nasdaq:1m".
func parseSymbolSpec(spec string) (model.SubscriptionDataConfig, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return model.SubscriptionDataConfig{}, fmt.Errorf("marketfeed: invalid --symbol %q, want ticker:market:resolution", spec)
	}
	resolution, err := model.ParseResolution(parts[2])
	if err != nil {
		return model.SubscriptionDataConfig{}, err
	}
	return model.SubscriptionDataConfig{
		Symbol:     model.NewSymbol(parts[0], model.SecurityTypeEquity, model.Market(parts[1])),
		Resolution: resolution,
		Kind:       model.DataKindTradeBar,
		TickType:   model.TickTypeTrade,
	}, nil
}

// parseCSVLine decodes "unix_seconds,open,high,low,close,volume".
func parseCSVLine(record []byte) (model.BaseData, bool, error) {
	line := strings.TrimSpace(string(record))
	if line == "" {
		return model.BaseData{}, false, nil
	}
	fields := strings.Split(line, ",")
	if len(fields) != 6 {
		return model.BaseData{}, false, fmt.Errorf("marketfeed: expected 6 csv fields, got %d", len(fields))
	}
	sec, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	open, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	high, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	low, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	closePrice, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}
	volume, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return model.BaseData{}, false, err
	}

	t := time.Unix(sec, 0).UTC()
	return model.BaseData{
		Time:    t,
		EndTime: t,
		Kind:    model.DataKindTradeBar,
		TradeBar: model.TradeBar{
			Open: open, High: high, Low: low, Close: closePrice, Volume: volume,
		},
	}, true, nil
}

// stdoutCallbacks is the default algorithm surface for the CLI: it just
// prints what it receives, enough to smoke-test a subscription set without
// writing a host application.
type stdoutCallbacks struct{}

func (stdoutCallbacks) OnData(slice model.TimeSlice) {
	for _, packet := range slice.Packets {
		for _, data := range packet.Data {
			fmt.Printf("%s  %-24s  O:%.4f H:%.4f L:%.4f C:%.4f V:%.2f\n",
				data.Time.Format(time.RFC3339), packet.Config.Symbol, data.TradeBar.Open, data.TradeBar.High,
				data.TradeBar.Low, data.TradeBar.Close, data.TradeBar.Volume)
		}
	}
}

func (stdoutCallbacks) OnSecuritiesChanged(changes model.SecurityChanges) {
	fmt.Printf("universe %q: +%v -%v\n", changes.Universe, changes.Additions, changes.Removals)
}

func (stdoutCallbacks) OnEndOfAlgorithm() {
	fmt.Println("-- end of run --")
}
