package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"mining-sim-lab/internal/config"
	"mining-sim-lab/internal/domain"
	"mining-sim-lab/internal/observability"
	"mining-sim-lab/internal/probability"
	"mining-sim-lab/internal/reporting"
	"mining-sim-lab/internal/simulation"
)

// newApp builds the CLI. Defaults come from cfg; output goes to out and
// logs to errOut.
func newApp(cfg config.Config, out, errOut io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "simulate"
	app.Usage = "Headless mining economics simulator"
	app.Version = "0.1.0"
	app.Writer = out
	app.ErrWriter = errOut
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
			Value: "warn",
		},
		cli.BoolFlag{
			Name:  "log-json",
			Usage: "Log in JSON format",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Run a fixed number of ticks and write the CSV export",
			Flags:  append(runFlags(cfg), paramFlags(cfg)...),
			Action: runAction,
		},
		{
			Name:   "coins",
			Usage:  "List the coin catalog",
			Action: coinsAction,
		},
		{
			Name:   "hardware",
			Usage:  "List hardware presets",
			Action: hardwareAction,
		},
		{
			Name:   "breakdown",
			Usage:  "Print the daily profitability breakdown",
			Flags:  paramFlags(cfg),
			Action: breakdownAction,
		},
	}

	return app
}

func runFlags(cfg config.Config) []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "ticks",
			Usage: "Simulated seconds to run",
			Value: 60,
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "Random seed (0 = time based)",
			Value: cfg.Seed,
		},
		cli.IntFlag{
			Name:  "history",
			Usage: "Samples kept in the history window",
			Value: cfg.HistorySize,
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "Output directory for the CSV export",
			Value: cfg.OutputDir,
		},
		cli.BoolFlag{
			Name:  "report",
			Usage: "Also write the Markdown report",
		},
	}
}

func paramFlags(cfg config.Config) []cli.Flag {
	defaults := domain.DefaultMiningParameters()
	return []cli.Flag{
		cli.StringFlag{
			Name:  "coin",
			Usage: "Coin symbol (BTC, ETH, LTC, DOGE)",
			Value: cfg.Coin,
		},
		cli.StringFlag{
			Name:  "hardware",
			Usage: "Hardware preset name; overrides --hashrate and --power",
		},
		cli.Float64Flag{
			Name:  "hashrate",
			Usage: "Hashrate in TH/s",
			Value: defaults.Hashrate,
		},
		cli.Float64Flag{
			Name:  "power",
			Usage: "Power draw in watts",
			Value: defaults.PowerWatts,
		},
		cli.Float64Flag{
			Name:  "rate",
			Usage: "Electricity rate in USD per kWh",
			Value: defaults.ElectricityRate,
		},
		cli.Float64Flag{
			Name:  "fee",
			Usage: "Pool fee percent",
			Value: defaults.PoolFeePercent,
		},
	}
}

// parametersFromFlags reads and clamps the mining parameters.
func parametersFromFlags(c *cli.Context) (domain.MiningParameters, error) {
	params := domain.MiningParameters{
		Hashrate:        c.Float64("hashrate"),
		PowerWatts:      c.Float64("power"),
		ElectricityRate: c.Float64("rate"),
		PoolFeePercent:  c.Float64("fee"),
	}
	if name := c.String("hardware"); name != "" {
		hw, err := domain.LookupHardware(name)
		if err != nil {
			return domain.MiningParameters{}, fmt.Errorf("hardware %q: %w", name, err)
		}
		if err := config.CheckHardware(hw); err != nil {
			return domain.MiningParameters{}, err
		}
		params = hw.Apply(params)
	}
	return config.ClampParameters(params), nil
}

func newLogger(c *cli.Context) (*logrus.Entry, error) {
	logger, err := observability.NewLogger(c.GlobalString("log-level"), c.GlobalBool("log-json"), c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	return logrus.NewEntry(logger), nil
}

func runAction(c *cli.Context) error {
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	params, err := parametersFromFlags(c)
	if err != nil {
		return err
	}
	ticks := c.Int("ticks")
	if ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", ticks)
	}

	// 1. Build an engine driven by a manual scheduler
	sched := simulation.NewManualScheduler()
	engine, err := simulation.NewEngine(simulation.EngineOptions{
		Coin:        c.String("coin"),
		Parameters:  &params,
		Random:      simulation.NewSeededSource(c.Int64("seed")),
		Scheduler:   sched,
		HistorySize: c.Int("history"),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("coin %q: %w", c.String("coin"), err)
	}

	// 2. Advance the requested number of ticks
	engine.Start(context.Background())
	sched.Advance(ticks)
	engine.Stop()

	// 3. Print the summary
	snap := engine.Snapshot()
	breakdown := engine.Breakdown()
	printSummary(c.App.Writer, snap, breakdown)

	// 4. Write outputs
	samples := engine.Samples()
	path, err := reporting.WriteCSVFile(c.String("out"), samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "CSV written: %s (%d samples)\n", path, len(samples))

	if c.Bool("report") {
		report := reporting.NewGenerator().Generate(snap, breakdown, samples)
		path, err := reporting.WriteMarkdownFile(c.String("out"), report)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Report written: %s\n", path)
	}
	return nil
}

func printSummary(w io.Writer, snap domain.Snapshot, b domain.ProfitBreakdown) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", snap.RunID)
	fmt.Fprintf(tw, "Coin\t%s\n", snap.Coin)
	fmt.Fprintf(tw, "Elapsed\t%ds\n", snap.Clock.ElapsedSeconds)
	fmt.Fprintf(tw, "Blocks Found\t%d\n", snap.Counters.BlocksFound)
	fmt.Fprintf(tw, "Total Earnings\t$%.2f\n", snap.Counters.TotalEarningsUSD)
	fmt.Fprintf(tw, "Coin Price\t$%.2f\n", snap.Market.CoinPriceUSD)
	fmt.Fprintf(tw, "Network Difficulty\t%g\n", snap.Market.NetworkDifficulty)
	tw.Flush()
	printBreakdown(w, b)
}

func printBreakdown(w io.Writer, b domain.ProfitBreakdown) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Daily Revenue\t$%.2f\n", b.Revenue)
	fmt.Fprintf(tw, "Electricity Cost\t-$%.2f\n", b.ElectricityCost)
	fmt.Fprintf(tw, "Pool Fee\t-$%.2f\n", b.PoolFeeCost)
	fmt.Fprintf(tw, "Net Profit\t$%.2f\n", b.NetProfit)
	tw.Flush()
}

func coinsAction(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tALGORITHM\tPRICE\tREWARD\tDIFFICULTY")
	for _, coin := range domain.Coins() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%g\n",
			coin.Symbol, coin.Name, coin.Algorithm, coin.PriceUSD, coin.BlockReward, coin.Difficulty)
	}
	return tw.Flush()
}

func hardwareAction(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHASHRATE\tPOWER\tPRICE\tEFFICIENCY\tAPPLICABLE")
	for _, hw := range domain.HardwarePresets() {
		applicable := "yes"
		if config.CheckHardware(hw) != nil {
			applicable = "no"
		}
		fmt.Fprintf(tw, "%s\t%g TH/s\t%g W\t$%g\t%g J/TH\t%s\n",
			hw.Name, hw.Hashrate, hw.PowerWatts, hw.PriceUSD, hw.Efficiency, applicable)
	}
	return tw.Flush()
}

func breakdownAction(c *cli.Context) error {
	coin, err := domain.LookupCoin(c.String("coin"))
	if err != nil {
		return fmt.Errorf("coin %q: %w", c.String("coin"), err)
	}
	params, err := parametersFromFlags(c)
	if err != nil {
		return err
	}

	econ := probability.Compute(params, coin.Market())
	fmt.Fprintf(c.App.Writer, "Coin: %s | Hashrate: %g TH/s | Power: %g W | Rate: $%g/kWh | Fee: %g%%\n",
		coin.Symbol, params.Hashrate, params.PowerWatts, params.ElectricityRate, params.PoolFeePercent)
	fmt.Fprintf(c.App.Writer, "Block probability per second: %g\n", econ.ProbabilityPerSecond)
	fmt.Fprintf(c.App.Writer, "Efficiency: %g TH/s per kW\n", probability.Efficiency(params.Hashrate, params.PowerWatts))
	printBreakdown(c.App.Writer, probability.Breakdown(econ))
	return nil
}
