package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"media-store/core/media"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	bucketFlag      string
	outputFlag      string
	contentTypeFlag string
)

// mediaCmd groups the provider operations.
var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Operate on stored media objects",
}

var mediaGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Download a media object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		body, err := a.provider.GetStream(cmd.Context(), args[0], mediaOptions()...)
		if err != nil {
			return err
		}
		defer body.Close()

		out := cmd.OutOrStdout()
		if outputFlag != "" && outputFlag != "-" {
			f, err := os.Create(outputFlag)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputFlag, err)
			}
			defer f.Close()
			out = f
		}
		n, err := io.Copy(out, body)
		if err != nil {
			return fmt.Errorf("failed to write media: %w", err)
		}
		a.logger.Debug("Downloaded media", zap.String("path", args[0]), zap.Int64("bytes", n))
		return nil
	},
}

var mediaPutCmd = &cobra.Command{
	Use:   "put <file> <path>",
	Short: "Upload a file as a new media object with one reference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", args[0], err)
		}

		opts := mediaOptions()
		if contentTypeFlag != "" {
			opts = append(opts, media.WithContentType(contentTypeFlag))
		}
		info, err := a.provider.Set(cmd.Context(), media.Stream(f, st.Size()), args[1], opts...)
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var mediaStatCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show media object metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		info, err := a.provider.Stat(cmd.Context(), args[0], mediaOptions()...)
		if err != nil {
			return err
		}
		return printJSON(cmd, info)
	},
}

var mediaExistsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Check whether a media object exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.provider.Exists(cmd.Context(), args[0], mediaOptions()...))
		return nil
	},
}

var mediaRefCmd = &cobra.Command{
	Use:   "ref <path>",
	Short: "Add one reference to a media object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := a.provider.AddReferences(cmd.Context(), args[0], mediaOptions()...); err != nil {
			return err
		}
		refs, err := a.provider.References(cmd.Context(), args[0], mediaOptions()...)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]int{"references": refs})
	},
}

var mediaRmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Drop one reference, removing the object with the last one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		res, err := a.provider.Delete(cmd.Context(), args[0], mediaOptions()...)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func mediaOptions() []media.Option {
	if bucketFlag == "" {
		return nil
	}
	return []media.Option{media.WithBucket(bucketFlag)}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	mediaCmd.PersistentFlags().StringVar(&bucketFlag, "bucket", "", "Bucket override for this call")
	mediaGetCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write to file instead of stdout")
	mediaPutCmd.Flags().StringVar(&contentTypeFlag, "content-type", "", "Content type of the uploaded object")

	mediaCmd.AddCommand(mediaGetCmd, mediaPutCmd, mediaStatCmd, mediaExistsCmd, mediaRefCmd, mediaRmCmd)
	RootCmd.AddCommand(mediaCmd)
}
