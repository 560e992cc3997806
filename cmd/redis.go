package cmd

import (
	"fmt"

	"AudioEditor/cache"
	"AudioEditor/logger"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Connect to the Redis instance used by the asset index and run a set/get/del round trip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.ConnectRedis(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close Redis connection", logger.ErrorField(err))
			}
		}()
		fmt.Println("Redis connection successful")

		if err := cache.TestRedis(cmd.Context(), client); err != nil {
			return err
		}
		fmt.Println("Redis round trip successful")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
