package cmd

import (
	"fmt"
	"time"

	"AudioEditor/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "List mirrored outputs in MinIO",
	Long:  `List the objects the output mirror uploaded to MINIO_BUCKET, optionally only the totals.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return err
		}
		objects, stats, err := client.ListObjects(cmd.Context(), minioPrefix)
		if err != nil {
			return err
		}

		fmt.Printf("Prefix: %q\n", minioPrefix)
		fmt.Printf("Objects: %d\n", stats.TotalObjects)
		fmt.Printf("Total size: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
		}
		if minioStats {
			return nil
		}

		for _, obj := range objects {
			fmt.Printf("  %s  %s  %s\n", obj.LastModified.Format("2006-01-02 15:04:05"), storage.FormatSize(obj.Size), obj.Key)
		}
		return nil
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "outputs/", "object key prefix")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print totals only")
	rootCmd.AddCommand(minioCmd)
}
