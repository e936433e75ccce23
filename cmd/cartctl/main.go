package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/nikolayk812/cartstore/internal/cart"
	"github.com/nikolayk812/cartstore/internal/config"
	"github.com/nikolayk812/cartstore/internal/domain"
	"github.com/nikolayk812/cartstore/internal/logger"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, shutdown := newRootCmd(os.Stdout)
	err := root.ExecuteContext(ctx)
	shutdown(context.WithoutCancel(ctx))
	stop()

	if err != nil {
		// rejected operations were already reported by the notifier
		if cart.KindOf(err) == "" {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// newRootCmd returns the CLI and a shutdown func that pushes metrics and
// releases whatever the command opened.
func newRootCmd(out io.Writer) (*cobra.Command, func(context.Context)) {
	var a *app

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Manage the shopping cart",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bootLog := logger.New(logger.Options{Component: "cartctl"})

			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				bootLog.Warn(ctx, "failed to read .env file, relying on environment")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.New(logger.Options{
				Component: "cartctl",
				Level:     logger.ParseLevel(cfg.App.LogLevel),
				Format:    cfg.App.LogFormat,
			})

			a, err = newApp(ctx, cfg, log)
			return err
		},
	}

	root.SetOut(out)
	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printCart(cmd.OutOrStdout(), a.locale, a.store.Cart())
			},
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add one unit of a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseProductID(args[0])
				if err != nil {
					return err
				}
				return report(cmd, a, a.store.AddProduct(cmd.Context(), productID))
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseProductID(args[0])
				if err != nil {
					return err
				}
				return report(cmd, a, a.store.RemoveProduct(cmd.Context(), productID))
			},
		},
		&cobra.Command{
			Use:   "set <product-id> <amount>",
			Short: "Set the quantity of a product in the cart",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseProductID(args[0])
				if err != nil {
					return err
				}
				amount, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("amount[%s] is not a number", args[1])
				}
				return report(cmd, a, a.store.UpdateProductAmount(cmd.Context(), cart.UpdateAmount{
					ProductID: productID,
					Amount:    amount,
				}))
			},
		},
	)

	shutdown := func(ctx context.Context) {
		if a == nil {
			return
		}
		a.pushMetrics(ctx)
		a.close()
	}

	return root, shutdown
}

// report prints the cart after a successful mutation.
func report(cmd *cobra.Command, a *app, opErr error) error {
	if opErr != nil {
		return opErr
	}
	return printCart(cmd.OutOrStdout(), a.locale, a.store.Cart())
}

func parseProductID(raw string) (int64, error) {
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		return 0, fmt.Errorf("product id[%s] is not a positive number", raw)
	}
	return productID, nil
}

func printCart(out io.Writer, locale language.Tag, c domain.Cart) error {
	if c.Count() == 0 {
		_, err := fmt.Fprintln(out, "cart is empty")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tAMOUNT\tPRICE\tSUBTOTAL")
	for _, item := range c.Items {
		subtotal, _ := c.Subtotal(item.Product.ID)
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			item.Product.ID,
			item.Product.Title,
			item.Amount,
			domain.FormatMoney(locale, item.Product.Price),
			domain.FormatMoney(locale, subtotal),
		)
	}

	total, err := c.Total()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\t\t\tTOTAL\t%s\n", domain.FormatMoney(locale, total))

	return w.Flush()
}
