package main

import (
	"os"

	"github.com/psds-microservice/work-buddy/cmd"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("work-buddy")
		os.Exit(1)
	}
}
