// Command admin-console is the operator's order management tool. It lists
// orders, shows their fulfillment state, and advances an order's status with
// an explicit confirmation step.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/untyped-clothing/orders/internal/client"
	"github.com/untyped-clothing/orders/internal/console"
	"github.com/untyped-clothing/orders/internal/domain/order"
)

func main() {
	var (
		apiURL  string
		token   string
		timeout time.Duration
		yes     bool
	)

	flag.StringVar(&apiURL, "api-url", "http://localhost:8080", "orders API base URL (or UNTYPED_API_URL env)")
	flag.StringVar(&token, "token", "", "admin bearer token (or UNTYPED_ADMIN_TOKEN env)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "status update request timeout")
	flag.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	flag.Parse()

	if v := os.Getenv("UNTYPED_API_URL"); v != "" && apiURL == "http://localhost:8080" {
		apiURL = v
	}
	if token == "" {
		token = os.Getenv("UNTYPED_ADMIN_TOKEN")
	}
	if token == "" {
		slog.Error("admin token is required: set --token or UNTYPED_ADMIN_TOKEN")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, apiURL, token, timeout, yes, flag.Args()); err != nil {
		slog.Error("admin-console failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, apiURL, token string, timeout time.Duration, yes bool, args []string) error {
	api, err := client.New(client.Config{
		BaseURL: apiURL,
		Token:   token,
		Timeout: timeout,
	})
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	con := console.New(api, zap.NewNop(), console.WithUpdateTimeout(timeout))

	if len(args) == 0 {
		return errors.New("usage: admin-console [flags] list | show <order-id> | set <order-id> <status>")
	}

	switch args[0] {
	case "list":
		return listOrders(ctx, con)
	case "show":
		if len(args) != 2 {
			return errors.New("usage: admin-console show <order-id>")
		}
		return showOrder(ctx, con, args[1])
	case "set":
		if len(args) != 3 {
			return errors.New("usage: admin-console set <order-id> <status>")
		}
		return setStatus(ctx, con, args[1], args[2], yes)
	default:
		return errors.Errorf("unknown command %q", args[0])
	}
}

func listOrders(ctx context.Context, con *console.Console) error {
	if err := con.Refresh(ctx); err != nil {
		return err
	}

	orders := con.Orders()
	fmt.Printf("%-38s %-12s %-10s %s\n", "ORDER", "STATUS", "TOTAL", "CREATED")
	for _, o := range orders {
		fmt.Printf("%-38s %-12s %-10s %s\n",
			o.ID, o.Status, o.Total.StringFixed(2), o.CreatedAt.Format(time.RFC3339))
	}
	fmt.Printf("%d orders\n", len(orders))
	return nil
}

func showOrder(ctx context.Context, con *console.Console, id string) error {
	o, err := con.Load(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Order %s\n", o.ID)
	fmt.Printf("  status:  %s (%s)\n", o.Status, o.Status.Label())
	fmt.Printf("  total:   %s\n", o.Total.StringFixed(2))
	fmt.Printf("  payment: %s\n", o.PaymentMethod)
	fmt.Printf("  ship to: %s, %s %s\n", o.Shipping.Name, o.Shipping.City, o.Shipping.PostalCode)
	for _, it := range o.Items {
		fmt.Printf("  item:    %dx %s (%s/%s) @ %s\n",
			it.Quantity, it.Name, it.Size, it.Color, it.UnitPrice.StringFixed(2))
	}

	candidates, err := con.Candidates(id)
	if err != nil {
		return err
	}
	var next []string
	for _, s := range append(order.StatusOrder(), order.StatusCancelled) {
		if candidates[s] {
			next = append(next, s.String())
		}
	}
	if len(next) == 0 {
		fmt.Println("  no transitions available (terminal)")
	} else {
		fmt.Printf("  next:    %s\n", strings.Join(next, ", "))
	}
	return nil
}

func setStatus(ctx context.Context, con *console.Console, id, rawStatus string, yes bool) error {
	next, err := order.ParseStatus(rawStatus)
	if err != nil {
		return err
	}

	if _, err := con.Load(ctx, id); err != nil {
		return err
	}

	confirm := func(o *order.Order, next order.Status) bool {
		if yes {
			return true
		}
		fmt.Printf("Move order %s from %s to %s? [y/N] ", o.ID, o.Status, next)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}

	if err := con.Transition(ctx, id, next, confirm); err != nil {
		if errors.Is(err, console.ErrConfirmationDeclined) {
			fmt.Println("aborted, order unchanged")
			return nil
		}
		return err
	}

	fmt.Printf("order %s is now %s\n", id, next)
	return nil
}
