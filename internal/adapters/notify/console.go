package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// Console implements ports.Notifier, writing tick results to stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout. table selects the
// full per-actor table instead of the compact one-line summary.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyTick prints one committed snapshot.
func (c *Console) NotifyTick(_ context.Context, sessionID string, snap domain.Snapshot) error {
	if c.table {
		c.printFull(sessionID, snap)
	} else {
		c.printCompact(snap)
	}
	return nil
}

// printCompact prints the essentials in one line per tick.
func (c *Console) printCompact(snap domain.Snapshot) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d symbols, %d decisions, %d trades",
		snap.Timestamp.Format("2006-01-02 15:04"),
		len(snap.MarketData), len(snap.Decisions), len(snap.Trades))

	for _, actor := range snap.ActorStates {
		fmt.Fprintf(&sb, " | %s $%.2f (%+.2f%%)",
			actor.Name, actor.TotalAssets, actor.TotalReturnPercent)
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull prints the per-actor table plus every trade of the tick.
func (c *Console) printFull(sessionID string, snap domain.Snapshot) {
	fmt.Fprintf(c.out, "\n[%s] session %s — tick %s\n",
		time.Now().Format("15:04:05"), sessionID, snap.Timestamp.Format("2006-01-02 15:04"))

	table := tablewriter.NewWriter(c.out)
	table.Header("Actor", "Cash", "Positions", "Assets", "Return", "Return%", "Active")
	for _, actor := range snap.ActorStates {
		table.Append(
			actor.Name,
			fmt.Sprintf("$%.2f", actor.Cash),
			c.positionsLabel(actor),
			fmt.Sprintf("$%.2f", actor.TotalAssets),
			fmt.Sprintf("%+.2f", actor.TotalReturn),
			fmt.Sprintf("%+.2f%%", actor.TotalReturnPercent),
			fmt.Sprintf("%t", actor.IsActive),
		)
	}
	table.Render()

	for _, tr := range snap.Trades {
		fmt.Fprintf(c.out, "  %s %s %d × %s @ $%.2f = $%.2f\n",
			tr.ActorID, strings.ToUpper(string(tr.Kind)), tr.Quantity, tr.Symbol, tr.Price, tr.Amount)
	}
}

func (c *Console) positionsLabel(actor domain.ActorState) string {
	if len(actor.Portfolio) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(actor.Portfolio))
	for _, pos := range actor.Portfolio {
		parts = append(parts, fmt.Sprintf("%s×%d@%.2f", pos.Symbol, pos.Quantity, pos.CostPrice))
	}
	return strings.Join(parts, " ")
}

// NotifyLeaderboard prints best-ever performance per actor.
func (c *Console) NotifyLeaderboard(_ context.Context, records []domain.PerformanceRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(c.out, "no recorded performances")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Actor", "Return%", "Assets", "Trades", "Duration", "Session")
	for i, rec := range records {
		table.Append(
			fmt.Sprintf("%d", i+1),
			rec.ActorName,
			fmt.Sprintf("%+.2f%%", rec.ReturnPercent),
			fmt.Sprintf("$%.2f", rec.TotalAssets),
			fmt.Sprintf("%d", rec.TradeCount),
			rec.Duration.Truncate(time.Minute).String(),
			shortID(rec.SessionID),
		)
	}
	table.Render()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
