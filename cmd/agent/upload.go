package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexiqai/rag-agent/internal/config"
	"github.com/lexiqai/rag-agent/internal/console"
	"github.com/lexiqai/rag-agent/internal/upload"
	"github.com/lexiqai/rag-agent/internal/vectorize"
)

// UploadCmd groups the upload subcommands
type UploadCmd struct {
	File   UploadFileCmd   `command:"file" description:"Upload one or more files (glob patterns allowed)"`
	Folder UploadFolderCmd `command:"folder" description:"Upload every supported file in a folder"`
}

// UploadFileCmd uploads individual files
type UploadFileCmd struct {
	Args struct {
		Paths []string `positional-arg-name:"path" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

// UploadFolderCmd uploads the supported files directly inside a folder
type UploadFolderCmd struct {
	Args struct {
		Folder string `positional-arg-name:"folder"`
	} `positional-args:"yes" required:"yes"`
}

func (c *UploadFileCmd) Execute(_ []string) error {
	uploader, err := newUploader()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := uploader.UploadFiles(ctx, c.Args.Paths)
	if summary.Succeeded() < summary.Total() || summary.Total() == 0 {
		return fmt.Errorf("uploaded %d of %d files", summary.Succeeded(), summary.Total())
	}
	return nil
}

func (c *UploadFolderCmd) Execute(_ []string) error {
	uploader, err := newUploader()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := uploader.UploadFolder(ctx, c.Args.Folder)
	if err != nil {
		return err
	}
	if summary.Succeeded() < summary.Total() {
		return fmt.Errorf("uploaded %d of %d files", summary.Succeeded(), summary.Total())
	}
	return nil
}

func newUploader() (*upload.Uploader, error) {
	cfg, err := loadConfig(config.ModeUpload)
	if err != nil {
		return nil, err
	}
	client, err := vectorize.NewClient(cfg, nil)
	if err != nil {
		return nil, err
	}
	return upload.New(client, console.NewSink(os.Stdout)), nil
}
