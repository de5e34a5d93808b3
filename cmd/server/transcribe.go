package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"voxgate/internal/correlation"
	"voxgate/internal/model"
	"voxgate/internal/stt"
)

func newTranscribeCmd() *cobra.Command {
	var opts stt.Options
	var contentType string
	cmd := &cobra.Command{
		Use:   "transcribe FILE",
		Short: "Run one local file through the gateway pipeline and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}

			file, err := localFile(args[0], contentType)
			if err != nil {
				return err
			}

			ctx := correlation.WithID(cmd.Context(), correlation.AssignOrPropagate(""))
			result, err := a.gateway.Transcribe(ctx, file, opts)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&opts.ModelSize, "model-size", "", "Backend model size (e.g. base, small)")
	cmd.Flags().StringVar(&opts.Language, "language", "", "Spoken language hint (e.g. en)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type to declare; detected from the file when empty")
	return cmd
}

// localFile reads path and declares the given content type, or the sniffed one
func localFile(path, contentType string) (*model.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	return model.NewUploadedFileFromBytes(filepath.Base(path), contentType, data), nil
}
