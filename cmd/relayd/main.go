// Command relayd runs the IRC relay core: it loads configuration, starts a
// Hub, and accepts connections on every configured listen address.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/summercat/relayd/internal/config"
	"github.com/summercat/relayd/internal/motd"
	"github.com/summercat/relayd/internal/relay"
)

func main() {
	log.SetFlags(0)

	configFile, err := getArgs()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := motd.NewFileProvider(cfg.MOTDPath)
	if err != nil {
		log.Fatal(err)
	}

	hub := relay.NewHub(relay.Config{
		ServerName:  cfg.ServerName,
		ServerInfo:  cfg.ServerInfo,
		Version:     cfg.Version,
		CreatedDate: cfg.CreatedDate,
		MOTD:        provider,
	})

	listeners, err := bind(cfg.ListenAddrs, hub)
	if err != nil {
		log.Fatal(err)
	}

	for _, l := range listeners {
		go l.Serve()
	}

	log.Printf("relayd: listening on %v", cfg.ListenAddrs)
	hub.Run()

	log.Printf("relayd: shut down cleanly")
}

func getArgs() (string, error) {
	configFile := flag.String("config", "", "Configuration file.")

	flag.Parse()

	if *configFile == "" {
		flag.PrintDefaults()
		return "", fmt.Errorf("you must provide a configuration file")
	}

	return *configFile, nil
}

func bind(addrs []string, hub *relay.Hub) ([]*relay.Listener, error) {
	var listeners []*relay.Listener
	for _, addr := range addrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		listeners = append(listeners, relay.NewListener(ln, hub))
	}
	return listeners, nil
}
