package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slacknotify/slacknotify/internal/message"
	"github.com/slacknotify/slacknotify/internal/notification"
	"github.com/slacknotify/slacknotify/internal/recipe"
)

// messageFlags are shared by send and preview.
type messageFlags struct {
	channels   []string
	text       string
	header     string
	section    string
	fields     []string
	list       []string
	marker     string
	divider    bool
	context    string
	recipePath string
	blocksPath string
}

func (f *messageFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.text, "text", "t", "", "Top-level message text")
	fl.StringVar(&f.header, "header", "", "Header block text")
	fl.StringVar(&f.section, "section", "", "Section text (mrkdwn)")
	fl.StringArrayVarP(&f.fields, "field", "f", nil, "Section field as title=value (repeatable)")
	fl.StringArrayVarP(&f.list, "list", "l", nil, "List item (repeatable)")
	fl.StringVar(&f.marker, "marker", message.DefaultListMarker, "List item marker")
	fl.BoolVar(&f.divider, "divider", false, "Add a divider before the context line")
	fl.StringVar(&f.context, "context", "", "Context line shown at the bottom")
	fl.StringVarP(&f.recipePath, "recipe", "r", "", "Recipe file (YAML or JSON)")
	fl.StringVar(&f.blocksPath, "blocks", "", "File with a raw Block Kit JSON array")
}

// recipe turns the flags into a Recipe. A --recipe file is the base; --text
// overrides its text and the block flags are appended after its steps.
func (f *messageFlags) recipe() (*recipe.Recipe, error) {
	r := &recipe.Recipe{}
	if f.recipePath != "" {
		loaded, err := recipe.Load(f.recipePath)
		if err != nil {
			return nil, err
		}
		r = loaded
	}
	if f.text != "" {
		r.Text = f.text
	}
	if f.blocksPath != "" {
		data, err := os.ReadFile(f.blocksPath)
		if err != nil {
			return nil, fmt.Errorf("read blocks: %w", err)
		}
		if err := json.Unmarshal(data, &r.Blocks); err != nil {
			return nil, fmt.Errorf("parse blocks %s: %w", f.blocksPath, err)
		}
	}

	if f.header != "" {
		r.Steps = append(r.Steps, recipe.Step{Header: f.header})
	}
	if f.section != "" || len(f.fields) > 0 {
		s := &recipe.Section{Text: f.section}
		for _, kv := range f.fields {
			title, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("field %q: expected title=value", kv)
			}
			md := "*" + title + "*\n" + value
			s.Fields = append(s.Fields, recipe.Element{Markdown: &md})
		}
		r.Steps = append(r.Steps, recipe.Step{Section: s})
	}
	if len(f.list) > 0 {
		r.Steps = append(r.Steps, recipe.Step{List: &recipe.List{Items: f.list, Marker: f.marker}})
	}
	if f.divider {
		r.Steps = append(r.Steps, recipe.Step{Divider: true})
	}
	if f.context != "" {
		r.Steps = append(r.Steps, recipe.Step{Context: f.context})
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

var sendFlags messageFlags

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Compose a message and post it to one or more channels",
	Example: `  slacknotify send -c '#deploys' --header 'Deploy' -f env=prod -f version=1.4.2
  slacknotify send -c '#a' -c '#b' -r deploy.yaml`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringSliceVarP(&sendFlags.channels, "channel", "c", nil, "Target channel (repeatable, defaults to slack.defaultChannel)")
	sendFlags.register(sendCmd)
}

func runSend(cmd *cobra.Command, _ []string) error {
	r, err := sendFlags.recipe()
	if err != nil {
		return err
	}
	c, err := buildContainer()
	if err != nil {
		return err
	}

	channels := sendFlags.channels
	if len(channels) == 0 {
		if r.Channel != "" {
			channels = []string{r.Channel}
		} else if ch := c.Config().Slack.DefaultChannel; ch != "" {
			channels = []string{ch}
		}
	}

	// Flag channels win over the recipe channel.
	build := func(n *notification.Notification) *notification.Notification {
		ch := n.Channel()
		return r.Apply(n).To(ch)
	}
	responses, err := notification.Broadcast(cmd.Context(), c.Factory(), channels, build)
	if err != nil {
		return err
	}
	for _, resp := range responses {
		if resp.Timestamp != "" {
			fmt.Printf("✓ Sent to %s (ts %s)\n", resp.Channel, resp.Timestamp)
		} else {
			fmt.Printf("✓ Sent to %s\n", resp.Channel)
		}
	}
	return nil
}

var previewFlags messageFlags

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the composed message payload as JSON without sending it",
	RunE: func(_ *cobra.Command, _ []string) error {
		r, err := previewFlags.recipe()
		if err != nil {
			return err
		}
		payload, err := r.Apply(notification.New(nil, nil)).ToValue()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	previewFlags.register(previewCmd)
}
