package main

import (
	"flag"

	"kyri56xcaesar/taskhub/internal/mhub"
)

func main() {
	confPath := flag.String("config", ".env", "path to the env configuration file")
	flag.Parse()

	mhub.InitAndServe(*confPath)
}
