package main

import (
	"log"
	"os"
	"strings"

	"github.com/atlantiplex/stage-api/app"
	"github.com/atlantiplex/stage-api/config"
	"github.com/atlantiplex/stage-api/session"
	"github.com/atlantiplex/stage-api/version"
	"gopkg.in/yaml.v3"
)

func main() {
	v := version.Get()
	bytes, err := yaml.Marshal(v)
	if err != nil {
		log.Panicf("marshal version data: %s", err)
	}
	log.Println("version:\n" + string(bytes))

	core, err := session.New(session.Options{
		SlotCount:         config.GetSlotCount(),
		MaxWaiting:        config.GetMaxWaiting(),
		InviteCodeBytes:   config.GetInviteCodeBytes(),
		DeltaRingSize:     config.GetDeltaRingSize(),
		RedeemDedupWindow: config.GetRedeemDedupWindow(),
	})
	if err != nil {
		log.Fatalf("orchestrator config: %s", err)
	}
	defer core.Close()

	a := app.App{}
	a.Initialize(core)

	addr := config.GetBindAddr()
	for _, arg := range os.Args {
		if specifiedAddr, ok := strings.CutPrefix(arg, "--addr="); ok {
			addr = specifiedAddr
		}
	}

	a.Run(addr)
}
