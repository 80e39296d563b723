package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/susu3304/tipbot/internal/db"
)

func (d *Dispatcher) handleHelp(ctx context.Context, cmd Command, _ *db.Group) error {
	d.reply(ctx, cmd.Chat.ID, cmd.MessageID, HelpText())
	return nil
}

// HelpText lists every command with its description.
func HelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, def := range Definitions() {
		fmt.Fprintf(&b, "/%s - %s\n", def.Name, def.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
