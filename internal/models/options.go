package models

// Options for the CLI.
type Options struct {
	Debug          bool   `doc:"Enable debug logging" short:"d" default:"false"`
	Host           string `doc:"Hostname to listen on" default:"0.0.0.0"`
	Port           int    `doc:"Port to listen on" short:"p" default:"9000"`
	Timeout        int    `doc:"Timeout in seconds for one subservice call" default:"120"`
	LLMURL         string `name:"llm-url" doc:"Override the URL of the storyboard (llm) subservice"`
	TTIURL         string `name:"tti-url" doc:"Override the URL of the text-to-image (tti) subservice"`
	TTAURL         string `name:"tta-url" doc:"Override the URL of the text-to-speech (tta) subservice"`
	ITVURL         string `name:"itv-url" doc:"Override the URL of the image-to-video (itv) subservice"`
	RegistrySource string `doc:"Where to load the routing table from: static or postgres" default:"static"`
	DBHost         string `doc:"Database hostname" default:"localhost"`
	DBPort         int    `doc:"Database port" default:"5432"`
	DBUser         string `doc:"Database username" default:"postgres"`
	DBPassword     string `doc:"Database password" default:"password"`
	DBName         string `doc:"Database name" default:"storyflow"`
}
