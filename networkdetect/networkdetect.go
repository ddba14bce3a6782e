package networkdetect

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/amalnathsathyan/resonance-vault/config"
	"github.com/amalnathsathyan/resonance-vault/dingsdk"
	"github.com/amalnathsathyan/resonance-vault/utils"
	"github.com/go-ping/ping"
)

type NetworkDetector struct {
	peer   string
	ttl    []int64
	avg    []int64
	pinger *ping.Pinger
	logger *log.Logger
	dsdk   *dingsdk.DingSdk
}

func NewNetworkDetector(peer string, dsdk *dingsdk.DingSdk) *NetworkDetector {
	logger := utils.NewLog(config.LogPath, config.NetworkLog)
	nd := &NetworkDetector{
		peer:   hostOf(peer),
		ttl:    make([]int64, 0),
		logger: logger,
		dsdk:   dsdk,
	}
	return nd
}

func hostOf(peer string) string {
	if index := strings.Index(peer, "://"); index >= 0 {
		peer = peer[index+3:]
	}
	if index := strings.LastIndex(peer, ":"); index >= 0 {
		peer = peer[:index]
	}
	return peer
}

// DetectPeers picks the node endpoint with the lowest average rtt.
func DetectPeers(peers []string) (string, int64) {
	detect := func(peer string) int64 {
		pinger, err := ping.NewPinger(hostOf(peer))
		if err != nil {
			return math.MaxInt64
		}
		pinger.Count = 3
		pinger.Timeout = 5 * time.Second
		if err := pinger.Run(); err != nil {
			return math.MaxInt64
		}
		stats := pinger.Statistics()
		return stats.AvgRtt.Nanoseconds()
	}
	minttl := int64(math.MaxInt64)
	index := 0
	for i, peer := range peers {
		ttl := detect(peer)
		if ttl < minttl {
			minttl = ttl
			index = i
		}
	}
	return peers[index], minttl
}

func (nd *NetworkDetector) ping() {
	pinger, err := ping.NewPinger(nd.peer)
	if err != nil {
		return
	}
	nd.pinger = pinger
	notifyTime := time.Now().Unix()
	pinger.OnRecv = func(pkt *ping.Packet) {
		nd.ttl = append(nd.ttl, pkt.Rtt.Nanoseconds())
		sum := int64(0)
		for _, x := range nd.ttl {
			sum += x
		}
		avg := sum / int64(len(nd.ttl))
		nd.avg = append(nd.avg, avg)
		if len(nd.ttl) > 300 {
			nd.ttl = nd.ttl[len(nd.ttl)-300:]
		}
		if len(nd.avg) > 300 {
			nd.avg = nd.avg[len(nd.avg)-300:]
		}
		isLow := false
		for _, avgx := range nd.avg {
			if avgx < 20*1000*1000 {
				isLow = true
			}
		}
		xx := time.Now().Unix()
		nd.logger.Printf("ping ttl: %d", avg/1000000)
		if !isLow {
			nd.logger.Printf("network latency is too large")
			if xx-notifyTime > 5*60 {
				nd.notify(nd.avg[len(nd.avg)-1])
				notifyTime = xx
			}
		}
	}
	pinger.Run()
}

func (nd *NetworkDetector) notify(ttl int64) {
	ttStr := time.Now().Format("2006-01-02 15:04:05")
	dingNotify := &dingsdk.DingNotify{
		MsgType: "text",
		Text: dingsdk.DingContent{
			Content: fmt.Sprintf("vault server network ttl: %d;\ntime: %s;",
				ttl/1000000, ttStr),
		},
		At: dingsdk.DingAt{
			IsAtAll: false,
		},
	}
	nd.dsdk.Notify(dingNotify)
}

func (nd *NetworkDetector) Start() {
	go nd.ping()
}

func (nd *NetworkDetector) Stop() {
	if nd.pinger != nil {
		nd.pinger.Stop()
	}
}
