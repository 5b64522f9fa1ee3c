package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	uploadChannel  string
	uploadFilename string
	uploadTitle    string
	uploadComment  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file to a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadChannel, "channel", "c", "", "Target channel ID (defaults to slack.defaultChannel)")
	uploadCmd.Flags().StringVar(&uploadFilename, "filename", "", "File name shown in Slack (defaults to the base name)")
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "File title")
	uploadCmd.Flags().StringVar(&uploadComment, "comment", "", "Initial comment posted with the file")
}

func runUpload(cmd *cobra.Command, args []string) error {
	c, err := buildContainer()
	if err != nil {
		return err
	}
	n := c.Notification()
	if uploadChannel != "" {
		n.To(uploadChannel)
	}
	if _, err := n.AttachFile(args[0], uploadFilename); err != nil {
		return err
	}
	resp, err := n.Title(uploadTitle).InitialComment(uploadComment).Upload(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("✓ Uploaded %s to %s (file %s)\n", args[0], n.Channel(), resp.FileID)
	return nil
}
