package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/upb/deutschhelfer/models"
	"github.com/upb/deutschhelfer/services/assistant"
	"github.com/upb/deutschhelfer/services/providers"
	"github.com/upb/deutschhelfer/utils"
	"go.uber.org/zap"
)

const titleWidth = 48

type cli struct {
	svc    *assistant.Service
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) ask(ctx context.Context, args []string) int {
	fs := c.flagSet("ask")
	provider := fs.String("provider", "", "provider to ask (default from settings)")
	image := fs.String("image", "", "path, file:// URI or https URL of a photo")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	answer, err := c.svc.Ask(ctx, assistant.AskInput{
		Provider: *provider,
		Prompt:   strings.Join(fs.Args(), " "),
		ImageRef: *image,
	})
	if err != nil {
		fmt.Fprintln(c.stderr, userMessage(err))
		return exitError
	}

	fmt.Fprintln(c.stdout, answer.Result.Text)
	if answer.Record == nil {
		fmt.Fprintln(c.stderr, "(the answer could not be saved to history)")
	}
	return exitOK
}

func (c *cli) history(ctx context.Context, args []string) int {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "clear":
			n, err := c.svc.ClearHistory(ctx)
			if err != nil {
				return c.fail(err)
			}
			fmt.Fprintf(c.stdout, "Deleted %d entries.\n", n)
			return exitOK
		case "show", "delete":
			if len(args) != 2 {
				fmt.Fprintf(c.stderr, "usage: deutschhelfer history %s <id>\n", args[0])
				return exitUsage
			}
			if args[0] == "show" {
				return c.showHistory(ctx, args[1])
			}
			if err := c.svc.DeleteHistoryEntry(ctx, args[1]); err != nil {
				return c.fail(err)
			}
			fmt.Fprintln(c.stdout, "Deleted.")
			return exitOK
		default:
			fmt.Fprintf(c.stderr, "unknown history command %q\n", args[0])
			return exitUsage
		}
	}

	fs := c.flagSet("history")
	limit := fs.Int("limit", 20, "number of entries to show")
	offset := fs.Int("offset", 0, "number of entries to skip")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	records, err := c.svc.History(ctx, *limit, *offset)
	if err != nil {
		return c.fail(err)
	}
	if len(records) == 0 {
		fmt.Fprintln(c.stdout, "No history yet.")
		return exitOK
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPROVIDER\tQUESTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Provider, r.Title(titleWidth))
	}
	if err := tw.Flush(); err != nil {
		return c.fail(err)
	}
	return exitOK
}

func (c *cli) showHistory(ctx context.Context, id string) int {
	r, err := c.svc.HistoryEntry(ctx, id)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "%s  %s\n", r.CreatedAt.Local().Format(time.DateTime), r.Provider)
	if r.Prompt != "" {
		fmt.Fprintf(c.stdout, "Q: %s\n", r.Prompt)
	}
	if r.HasImage() {
		fmt.Fprintf(c.stdout, "Image: %s\n", r.ImageRef)
	}
	fmt.Fprintf(c.stdout, "A: %s\n", r.Response)
	return exitOK
}

func (c *cli) key(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "usage: deutschhelfer key set|delete|list ...")
		return exitUsage
	}

	switch args[0] {
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(c.stderr, "usage: deutschhelfer key set <provider> <key>")
			return exitUsage
		}
		if err := c.svc.SetCredential(ctx, args[1], args[2]); err != nil {
			return c.fail(err)
		}
		fmt.Fprintf(c.stdout, "Key for %s saved.\n", strings.ToLower(args[1]))
	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(c.stderr, "usage: deutschhelfer key delete <provider>")
			return exitUsage
		}
		if err := c.svc.DeleteCredential(ctx, args[1]); err != nil {
			if assistant.IsNotFound(err) {
				fmt.Fprintf(c.stderr, "No stored key for %s.\n", strings.ToLower(args[1]))
				return exitError
			}
			return c.fail(err)
		}
		fmt.Fprintf(c.stdout, "Key for %s removed.\n", strings.ToLower(args[1]))
	case "list":
		statuses, err := c.svc.Credentials(ctx)
		if err != nil {
			return c.fail(err)
		}
		tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tSOURCE\tKEY")
		for _, s := range statuses {
			masked := s.Masked
			if masked == "" {
				masked = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Provider, s.Source, masked)
		}
		if err := tw.Flush(); err != nil {
			return c.fail(err)
		}
	default:
		fmt.Fprintf(c.stderr, "unknown key command %q\n", args[0])
		return exitUsage
	}
	return exitOK
}

func (c *cli) settings(ctx context.Context, args []string) int {
	fs := c.flagSet("settings")
	provider := fs.String("provider", "", "default provider")
	locale := fs.String("locale", "", "locale for image explanations, e.g. tr, de, en")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *provider != "" {
		if err := c.svc.SetDefaultProvider(ctx, *provider); err != nil {
			return c.fail(err)
		}
	}
	if *locale != "" {
		if err := c.svc.SetLocale(ctx, *locale); err != nil {
			return c.fail(err)
		}
	}

	s, err := c.svc.Settings(ctx)
	if err != nil {
		return c.fail(err)
	}
	printSettings(c.stdout, s)
	return exitOK
}

func printSettings(w io.Writer, s *models.Settings) {
	fmt.Fprintf(w, "provider: %s\nlocale:   %s\n", s.DefaultProvider, s.Locale)
}

// fail prints a user message for err and returns the error exit code
func (c *cli) fail(err error) int {
	c.logger.Debug("command failed", zap.Error(err))
	fmt.Fprintln(c.stderr, userMessage(err))
	return exitError
}

// userMessage turns an error into the text shown to the user
func userMessage(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		name := providerName(perr.Provider)
		switch perr.Kind {
		case providers.KindMissingCredential:
			return fmt.Sprintf("No API key for %s. Run 'deutschhelfer key set %s <key>' or set %s_API_KEY.",
				name, perr.Provider, strings.ToUpper(string(perr.Provider)))
		case providers.KindNetworkUnreachable:
			return fmt.Sprintf("Network error: could not reach %s. Check your connection and try again.", name)
		case providers.KindProviderHTTP:
			return fmt.Sprintf("%s error: %s", name, perr.Message)
		case providers.KindImageProcessing:
			return fmt.Sprintf("Could not use the image: %s.", perr.Message)
		case providers.KindInvalidRequest:
			if perr.Message == "unknown provider" {
				return fmt.Sprintf("Unknown provider. Choose one of: %s.", providerList())
			}
			return "Please type a question or attach an image."
		}
		return "Sorry, something went wrong. Please try again."
	}

	switch {
	case assistant.IsNotFound(err):
		return "No such history entry."
	case utils.IsValidationError(err):
		fields := utils.GetValidationFields(err)
		msgs := make([]string, 0, len(fields))
		for _, m := range fields {
			msgs = append(msgs, m)
		}
		sort.Strings(msgs)
		return "Invalid input: " + strings.Join(msgs, "; ")
	case errors.Is(err, providers.ErrUnknownProvider):
		return fmt.Sprintf("Unknown provider. Choose one of: %s.", providerList())
	}
	return fmt.Sprintf("Error: %v", err)
}

func providerName(p providers.Provider) string {
	switch p {
	case providers.ProviderOpenAI:
		return "OpenAI"
	case providers.ProviderAnthropic:
		return "Anthropic"
	case providers.ProviderPerplexity:
		return "Perplexity"
	}
	return "the provider"
}

func providerList() string {
	names := make([]string, 0, len(providers.All()))
	for _, p := range providers.All() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
