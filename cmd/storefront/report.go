package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"storefront/internal/catalog"
	"storefront/internal/data"
	"storefront/internal/history"
	"storefront/internal/manager"
	"storefront/internal/store"
)

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "print the product catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Value: catalog.AllCategories},
			&cli.StringFlag{Name: "search"},
			&cli.StringFlag{Name: "order", Value: string(catalog.PriceDesc), Usage: "price order: desc or asc"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			items, err := catalog.New(store.New(e.db), nil, e.log).Query(c.Context, catalog.Query{
				Category: c.String("category"),
				Search:   c.String("search"),
				Order:    catalog.Order(c.String("order")),
			})
			if err != nil {
				return err
			}
			return renderCatalog(c.App.Writer, items)
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "print a customer's order history",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "customer", Required: true, Usage: "customer id"},
			&cli.StringFlag{Name: "search", Usage: "keep orders with a cell containing this text"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			orders, err := history.NewService(store.New(e.db), e.log).ListOrders(c.Context, c.Uint64("customer"))
			if err != nil {
				return err
			}
			return renderOrders(c.App.Writer, history.FilterOrders(orders, c.String("search")))
		},
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "print the manager dashboard",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			svc := manager.NewService(store.New(e.db), e.log)
			sum, err := svc.Summary(c.Context)
			if err != nil {
				return err
			}
			months, err := svc.RevenueByMonth(c.Context, manager.RevenueFilter{})
			if err != nil {
				return err
			}
			delivery, err := svc.DeliveryPerformance(c.Context)
			if err != nil {
				return err
			}
			return renderDashboard(c.App.Writer, sum, months, delivery)
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "time the storefront's hot queries and print their plans",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "explain", Value: true, Usage: "print the query plan of each probe"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			defer e.close()

			results := data.RunProbes(c.Context, e.db, data.Probes())
			if c.Bool("explain") {
				for _, res := range results {
					if res.Err != nil {
						e.log.Warn("probe skipped explain", "probe", res.Name, "error", res.Err)
						continue
					}
					fmt.Fprintf(c.App.Writer, "[%s] %s\n", res.Name, res.Description)
					for _, line := range res.Explain {
						fmt.Fprintf(c.App.Writer, "  %s\n", line)
					}
				}
			}
			return renderProbes(c.App.Writer, results)
		},
	}
}

func renderCatalog(w io.Writer, items []catalog.Item) error {
	table := tablewriter.NewWriter(w)
	table.Header("Product", "Category", "Description", "Price", "Stock")
	for _, it := range items {
		if err := table.Append(it.ID, it.Category, truncateText(it.Description, 40), it.PriceLabel(), strconv.Itoa(it.Stock)); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderOrders(w io.Writer, orders []history.OrderSummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Order", "Status", "Purchased", "Total")
	for _, o := range orders {
		row := []string{
			strconv.FormatUint(o.OrderID, 10),
			o.Status,
			o.PurchasedAt.Format("2006-01-02 15:04"),
			"$" + o.Total.StringFixed(2),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderDashboard(w io.Writer, sum manager.Summary, months []manager.MonthRevenue, delivery []store.LabelCount) error {
	top := "-"
	if sum.TopSeller != nil {
		top = fmt.Sprintf("%s %s (%s) $%s", sum.TopSeller.FirstName, sum.TopSeller.LastName,
			sum.TopSeller.SellerID, sum.TopSeller.Revenue.StringFixed(2))
	}

	headline := tablewriter.NewWriter(w)
	headline.Header("Total sales", "Orders", "Average rating", "Top seller")
	if err := headline.Append("$"+sum.TotalSales.StringFixed(2), strconv.FormatInt(sum.TotalOrders, 10),
		strconv.FormatFloat(sum.AverageRating, 'f', 2, 64), top); err != nil {
		return err
	}
	if err := headline.Render(); err != nil {
		return err
	}

	byMonth := tablewriter.NewWriter(w)
	byMonth.Header("Month", "Revenue")
	for _, m := range months {
		if err := byMonth.Append(m.Month, "$"+m.Revenue.StringFixed(2)); err != nil {
			return err
		}
	}
	if err := byMonth.Render(); err != nil {
		return err
	}

	perf := tablewriter.NewWriter(w)
	perf.Header("Delivery", "Orders")
	for _, d := range delivery {
		if err := perf.Append(d.Label, strconv.FormatInt(d.Count, 10)); err != nil {
			return err
		}
	}
	return perf.Render()
}

func renderProbes(w io.Writer, results []data.ProbeResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Group", "Probe", "Description", "Duration", "Rows", "Status")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERR: " + truncateText(res.Err.Error(), 60)
		}
		err := table.Append(res.Group, res.Name, truncateText(res.Description, 40),
			res.Duration.String(), strconv.FormatInt(res.RowCount, 10), status)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func truncateText(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
