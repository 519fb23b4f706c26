package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/angelmondragon/storefront-backend/internal/browse"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "browse:", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse the storefront catalog from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Usage: "storefront API base URL (defaults to STOREFRONT_BROWSE_API_URL)"},
			&cli.StringFlag{Name: "token", Usage: "session id sent as a bearer token"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level"},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print one page of products with the pager controls",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "limit", Usage: "page size, 0 for the server default"},
					&cli.StringFlag{Name: "query"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "price-order", Value: string(enums.SortOrderNone)},
					&cli.StringFlag{Name: "price-min"},
					&cli.StringFlag{Name: "price-max"},
					&cli.StringFlag{Name: "updated-order", Value: string(enums.SortOrderNone)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runList(ctx, cmd, out)
				},
			},
			{
				Name:      "suggest",
				Usage:     "Print search suggestions for a query",
				ArgsUsage: "<query>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSuggest(ctx, cmd, out)
				},
			},
			{
				Name:      "product",
				Usage:     "Print one product with its variants",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runProduct(ctx, cmd, out)
				},
			},
		},
	}
}

func newSession(cmd *cli.Command, limit int) (*browse.Session, error) {
	cfg, err := config.LoadBrowse()
	if err != nil {
		return nil, err
	}
	if api := cmd.String("api"); api != "" {
		cfg.APIBaseURL = api
	}

	var opts []browse.Option
	if token := cmd.String("token"); token != "" {
		opts = append(opts, browse.WithSessionToken(token))
	}
	client, err := browse.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}

	logg := logger.New(logger.Options{
		ServiceName: "browse",
		Level:       cmd.String("log-level"),
		Output:      os.Stderr,
	})
	return browse.NewSession(browse.SessionParams{
		API:     client,
		Cache:   browse.CacheConfigFrom(cfg),
		Metrics: metrics.NewCacheMetrics(prometheus.NewRegistry()),
		Logger:  logg,
		Limit:   limit,
	})
}

func runList(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	priceOrder, err := enums.ParseSortOrder(cmd.String("price-order"))
	if err != nil {
		return err
	}
	updatedOrder, err := enums.ParseSortOrder(cmd.String("updated-order"))
	if err != nil {
		return err
	}

	session, err := newSession(cmd, cmd.Int("limit"))
	if err != nil {
		return err
	}
	state, _, err := session.Apply(ctx, browse.FilterKey{
		Page:           cmd.Int("page"),
		Query:          cmd.String("query"),
		Category:       cmd.String("category"),
		PriceOrder:     priceOrder,
		PriceMin:       cmd.String("price-min"),
		PriceMax:       cmd.String("price-max"),
		UpdatedAtOrder: updatedOrder,
	})
	if err != nil {
		return err
	}
	return printState(out, state)
}

func runSuggest(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query required")
	}
	session, err := newSession(cmd, 0)
	if err != nil {
		return err
	}
	suggestions, err := session.Suggest(ctx, query)
	if err != nil {
		return err
	}
	for _, s := range suggestions {
		fmt.Fprintf(out, "%s\t%s\n", s.ID, s.Title)
	}
	return nil
}

func runProduct(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	id, err := uuid.Parse(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}
	session, err := newSession(cmd, 0)
	if err != nil {
		return err
	}
	p, err := session.Product(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s)\n%s\n\n", p.Title, p.DisplayPrice, p.Description)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIANT\tPRICE\tDISCOUNT\tIN STOCK")
	for _, v := range p.Variants {
		discount := "-"
		if v.DiscountActive && v.DiscountPrice != nil {
			discount = *v.DiscountPrice
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Price, discount, v.InStock)
	}
	return tw.Flush()
}

// printState renders the product grid as a table followed by the pager row:
// the previous control, the page window with the current page bracketed, the
// next control and the last page.
func printState(out io.Writer, state browse.State) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE")
	for _, p := range state.Products {
		price := p.DisplayPrice
		if p.IsDiscounted {
			price += " (sale)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(state.Products) == 0 {
		fmt.Fprintln(out, "no products match")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, pagerLine(state))
	return nil
}

func pagerLine(state browse.State) string {
	pager := state.Pager
	parts := make([]string, 0, len(pager.Window())+3)
	if pager.CanPrev() {
		parts = append(parts, "< prev")
	}
	for _, p := range pager.Window() {
		label := strconv.Itoa(p)
		if p == pager.Current {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	if pager.CanNext() {
		parts = append(parts, "next >")
	}
	parts = append(parts, fmt.Sprintf("last: %d", pager.Last()))
	return strings.Join(parts, "  ")
}
