package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fjod/go_bazar/internal/cart"
	"github.com/fjod/go_bazar/internal/checkout"
	"github.com/fjod/go_bazar/internal/query"
	"github.com/fjod/go_bazar/internal/storefront"
	"github.com/spf13/cobra"
)

type (
	runFunc    func(a *app, cmd *cobra.Command, args []string) error
	appWrapper func(runFunc) func(*cobra.Command, []string) error
)

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the bazar catalog and manage your cart",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	// withApp opens the app for a single command and always releases it, so
	// the pebble lock is free for the next invocation.
	var withApp appWrapper = func(fn runFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, out)
			if err != nil {
				return err
			}
			defer a.close()
			return fn(a, cmd, args)
		}
	}

	root.AddCommand(
		newSearchCmd(withApp),
		newShowCmd(withApp),
		newCreateCmd(withApp),
		newCartCmd(withApp),
		newCheckoutCmd(withApp),
	)
	return root
}

func newSearchCmd(withApp appWrapper) *cobra.Command {
	return &cobra.Command{
		Use:   "search [term]",
		Short: "Search products; no term lists the whole catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			st, err := app.browser.Search(cmd.Context(), term)
			if err != nil {
				return err
			}
			app.println(storefront.RenderSearch(st))
			return nil
		}),
	}
}

func newShowCmd(withApp appWrapper) *cobra.Command {
	var add int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show product detail, optionally adding it to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			st, err := app.browser.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if st.Status == query.Success && add > 0 {
				if err := storefront.AddToCart(app.cart, *st.Data, add); err != nil {
					app.println(storefront.RenderError(err))
				}
			}
			inCart := 0
			if st.Data != nil {
				inCart = app.cart.Quantity(st.Data.ID)
			}
			app.println(storefront.RenderDetail(st, inCart))
			return nil
		}),
	}
	cmd.Flags().IntVar(&add, "add", 0, "add this many units to the cart")
	return cmd
}

func newCreateCmd(withApp appWrapper) *cobra.Command {
	var form storefront.CreateForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			st, err := app.browser.Create(cmd.Context(), form)
			if err != nil {
				if st.Status == query.Error {
					app.println(storefront.RenderError(err))
				}
				return errors.New("product was not created")
			}
			app.println(storefront.RenderCreated(st.Data))

			detail, err := app.browser.Product(cmd.Context(), st.Data.ID)
			if err != nil {
				return err
			}
			app.println(storefront.RenderDetail(detail, app.cart.Quantity(st.Data.ID)))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&form.Title, "title", "", "product title")
	f.StringVar(&form.Description, "description", "", "product description")
	f.StringVar(&form.Price, "price", "", "price in COP")
	f.StringVar(&form.Stock, "stock", "", "units in stock")
	f.StringVar(&form.Category, "category", "", "category")
	f.StringVar(&form.Brand, "brand", "", "brand (optional)")
	f.StringArrayVar(&form.ImagePaths, "image", nil, "image file (repeat up to 5 times)")
	return cmd
}

func newCartCmd(withApp appWrapper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the cart",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			printCart(app)
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			printCart(app)
			return nil
		}),
	}

	add := &cobra.Command{
		Use:   "add <id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				qty = n
			}
			st, err := app.browser.Product(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if st.Status != query.Success {
				return errors.New(st.Err)
			}
			if err := storefront.AddToCart(app.cart, *st.Data, qty); err != nil {
				return err
			}
			printCart(app)
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			app.cart.Remove(args[0])
			printCart(app)
			return nil
		}),
	}

	inc := &cobra.Command{
		Use:   "inc <id>",
		Short: "Add one unit, up to the available stock",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			item, ok := findItem(app.cart, args[0])
			if !ok {
				return fmt.Errorf("product %s is not in the cart", args[0])
			}
			if err := storefront.IncrementInCart(app.cart, item.Product); err != nil {
				return err
			}
			printCart(app)
			return nil
		}),
	}

	dec := &cobra.Command{
		Use:   "dec <id>",
		Short: "Remove one unit, keeping at least one",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			app.cart.Decrement(args[0])
			printCart(app)
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			app.cart.Clear()
			printCart(app)
			return nil
		}),
	}

	cmd.AddCommand(list, add, remove, inc, dec, clearCmd)
	return cmd
}

func newCheckoutCmd(withApp appWrapper) *cobra.Command {
	var customer checkout.Customer
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Send the order summary and empty the cart",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			res, err := checkout.Checkout(app.cart, customer, app.cfg.WhatsAppPhone)
			if err != nil {
				app.println(storefront.RenderError(err))
				return errors.New("checkout failed")
			}
			app.println(res.Text)
			app.println("")
			app.println("Open this link to send your order:")
			app.println(res.URL)
			return nil
		}),
	}
	cmd.Flags().StringVar(&customer.Name, "name", "", "your name")
	cmd.Flags().StringVar(&customer.Address, "address", "", "delivery address")
	return cmd
}

func printCart(a *app) {
	a.println(storefront.RenderCart(a.cart.Items(), a.cart.Total()))
}

func findItem(store *cart.Store, id string) (cart.Item, bool) {
	for _, it := range store.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return cart.Item{}, false
}
