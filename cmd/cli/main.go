package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gotransact-cli",
		Short:         "GoTransact CLI tool",
		Long:          `A command line interface for submitting transactions to the GoTransact API and operating it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoTransact API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		submitCmd(),
		balanceCmd(),
		historyCmd(),
		transactionCmd(),
		healthCmd(),
		deadLetterCmd(),
		reconcileCmd(),
	)

	return rootCmd
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
}

func call(ctx context.Context, method, path string, body any, headers map[string]string) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (HTTP %d): %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &apiError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	return &env, nil
}

func submitCmd() *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "submit <clientIdentification> <accountNumber> <amount>",
		Short: "Submit a credit (positive amount) or debit (negative amount)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			headers := map[string]string{}
			if idempotencyKey != "" {
				headers["Idempotency-Key"] = idempotencyKey
			}

			env, err := call(cmd.Context(), http.MethodPost, "/api/transactions", map[string]any{
				"clientIdentification": args[0],
				"accountNumber":        args[1],
				"amount":               amount,
			}, headers)
			if err != nil {
				return err
			}

			var receipt struct {
				TransactionID string `json:"transactionId"`
				Status        string `json:"status"`
			}
			if err := json.Unmarshal(env.Data, &receipt); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", receipt.Status, receipt.TransactionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <clientIdentification> <accountNumber>",
		Short: "Show the current balance of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(cmd.Context(), http.MethodGet, accountPath("/api/transactions/balance", args), nil, nil)
			if err != nil {
				return err
			}

			var balance decimal.Decimal
			if err := json.Unmarshal(env.Data, &balance); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), balance.StringFixed(2))
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <clientIdentification> <accountNumber>",
		Short: "List ledger entries of an account, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(cmd.Context(), http.MethodGet, accountPath("/api/transactions/history", args), nil, nil)
			if err != nil {
				return err
			}

			var entries []struct {
				TransactionID   string          `json:"transactionId"`
				TransactionType string          `json:"transactionType"`
				Amount          decimal.Decimal `json:"amount"`
				BalanceAfter    decimal.Decimal `json:"balanceAfter"`
				CreatedAt       time.Time       `json:"createdAt"`
			}
			if err := json.Unmarshal(env.Data, &entries); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TRANSACTION\tTYPE\tAMOUNT\tBALANCE\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					truncate(e.TransactionID, 32), e.TransactionType,
					e.Amount.StringFixed(2), e.BalanceAfter.StringFixed(2),
					e.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func transactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transaction <transactionId>",
		Short: "Show the ledger entry of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(cmd.Context(), http.MethodGet, "/api/transactions/"+url.PathEscape(args[0]), nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env.Data)
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(cmd.Context(), http.MethodGet, "/ready", nil, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", env.Code, env.Message)
			return nil
		},
	}
}

func deadLetterCmd() *cobra.Command {
	dlqCmd := &cobra.Command{
		Use:   "dlq",
		Short: "Dead-letter queue operations",
	}

	var topic string
	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count pending dead-letter messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/admin/dead-letters/count"
			if topic != "" {
				path += "?topic=" + url.QueryEscape(topic)
			}

			env, err := call(cmd.Context(), http.MethodGet, path, nil, nil)
			if err != nil {
				return err
			}

			var count struct {
				Count int64 `json:"count"`
			}
			if err := json.Unmarshal(env.Data, &count); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count.Count)
			return nil
		},
	}
	countCmd.Flags().StringVar(&topic, "topic", "", "Only count messages for this topic")

	retryCmd := &cobra.Command{
		Use:   "retry",
		Short: "Redeliver pending dead-letter messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := call(cmd.Context(), http.MethodPost, "/api/admin/dead-letters/retry", nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), env.Data)
		},
	}

	dlqCmd.AddCommand(countCmd, retryCmd)
	return dlqCmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [clientIdentification accountNumber]",
		Short: "Check balances against their ledger entries",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or a client and an account, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/admin/reconciliation"
			if len(args) == 2 {
				path = accountPath(path, args)
			}

			env, err := call(cmd.Context(), http.MethodGet, path, nil, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), env.Message)
			return printJSON(cmd.OutOrStdout(), env.Data)
		},
	}
}

func accountPath(prefix string, args []string) string {
	return prefix + "/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
