package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"
)

var (
	pools    = []string{"pool_a-01", "pool_a-02", "pool_b-01", "pool_tape-01"}
	doors    = []string{"Xrootd-door1", "WebDAV-door1", "DCap-door1"}
	storages = []string{"atlas:default@osm", "cms:disk@osm", "atlas:tape@osm"}
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Comma separated Kafka brokers")
	topic := flag.String("topic", "billing", "Billing topic to publish to")
	concurrency := flag.Int("c", 4, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 200, "Records per second limit")
	malformed := flag.Float64("malformed", 0.05, "Fraction of records that are deliberately malformed")
	flag.Parse()

	log.Printf("Starting billing load test on %s (topic %s)", *brokers, *topic)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d, Malformed: %.2f", *concurrency, *duration, *rps, *malformed)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	var wg sync.WaitGroup
	var successCount, errorCount, malformedCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 50)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				var value []byte
				if rand.Float64() < *malformed {
					value = malformedRecord()
					malformedCount.Add(1)
				} else {
					var err error
					value, err = json.Marshal(syntheticRecord(workerID))
					if err != nil {
						errorCount.Add(1)
						continue
					}
				}

				err := writer.WriteMessages(ctx, kafka.Message{Value: value})
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					errorCount.Add(1)
					continue
				}
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	total := successCount.Load() + errorCount.Load()
	log.Println("Load test finished.")
	log.Printf("Total Records: %d", total)
	log.Printf("Published: %d (malformed: %d)", successCount.Load(), malformedCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", float64(total)/duration.Seconds())
}

func syntheticRecord(workerID int) map[string]any {
	switch rand.IntN(5) {
	case 0:
		return transferRecord(workerID)
	case 1:
		return requestRecord(workerID)
	case 2:
		return tapeRecord("restore")
	case 3:
		r := tapeRecord("store")
		delete(r, "version")
		return r
	default:
		return removeRecord()
	}
}

func header(msgType, cellName, cellType string) map[string]any {
	code := 0
	msg := ""
	if rand.IntN(20) == 0 {
		code, msg = 10006, "Transfer interrupted"
	}
	return map[string]any{
		"msgType":     msgType,
		"date":        time.Now().Format("2006-01-02T15:04:05.000-07:00"),
		"queuingTime": rand.IntN(500),
		"cellName":    cellName,
		"cellType":    cellType,
		"cellDomain":  strings.SplitN(cellName, "-", 2)[0] + "Domain",
		"status":      map[string]any{"code": code, "msg": msg},
		"session":     fmt.Sprintf("%s:%s:%s", cellType, cellName, uuid.NewString()),
		"billingPath": fmt.Sprintf("/pnfs/example.org/data/%s.root", uuid.NewString()),
	}
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}

func direction() (bool, string) {
	switch rand.IntN(3) {
	case 0:
		return false, "read"
	case 1:
		return false, "write"
	default:
		return true, "read"
	}
}

func transferFields(r map[string]any) {
	isP2p, mode := direction()
	size := rand.IntN(1 << 30)
	millis := 1 + rand.IntN(60000)
	r["version"] = "1.0"
	r["transferTime"] = millis
	r["transferSize"] = size
	r["isP2p"] = isP2p
	r["isWrite"] = mode
	r["protocolInfo"] = map[string]any{
		"protocol": "Xrootd", "versionMajor": 5, "versionMinor": 0,
		"port": 1024 + rand.IntN(60000), "host": "192.0.2.10",
	}
	r["transferPath"] = r["billingPath"]
	bandwidth := float64(size) / (float64(millis) / 1000)
	if mode == "read" {
		r["meanReadBandwidth"] = bandwidth
	} else {
		r["meanWriteBandwidth"] = bandwidth
	}
}

func transferRecord(workerID int) map[string]any {
	r := header("transfer", pick(pools), "pool")
	transferFields(r)
	r["fileSize"] = r["transferSize"]
	r["storageInfo"] = pick(storages)
	r["pnfsid"] = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	r["subject"] = []string{fmt.Sprintf("UidPrincipal[%d]", 1000+workerID)}
	r["initiator"] = fmt.Sprintf("door:%s@doorDomain:%s", pick(doors), uuid.NewString())
	return r
}

func requestRecord(workerID int) map[string]any {
	r := header("request", pick(doors), "door")
	r["client"] = "192.0.2.10"
	r["clientChain"] = "192.0.2.10"
	r["fileSize"] = rand.IntN(1 << 30)
	r["storageInfo"] = pick(storages)
	r["subject"] = []string{fmt.Sprintf("UidPrincipal[%d]", 1000+workerID)}
	r["transferPath"] = r["billingPath"]
	r["sessionDuration"] = rand.IntN(120000)
	r["mappedUID"] = 1000 + workerID
	r["mappedGID"] = -1
	if rand.IntN(2) == 0 {
		mover := header("transfer", pick(pools), "pool")
		transferFields(mover)
		r["moverInfo"] = mover
	}
	return r
}

func tapeRecord(msgType string) map[string]any {
	r := header(msgType, "pool_tape-01", "pool")
	r["version"] = "1.0"
	r["pnfsid"] = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	r["fileSize"] = rand.IntN(1 << 32)
	r["storageInfo"] = "atlas:tape@osm"
	r["transferTime"] = rand.IntN(3600000)
	r["hsm"] = map[string]any{"type": "osm", "instance": "osm", "provider": "endit"}
	r["locations"] = []string{"osm://osm/?store=atlas&group=tape&bfid=" + uuid.NewString()}
	r["transaction"] = r["session"]
	return r
}

func removeRecord() map[string]any {
	r := header("remove", "PnfsManager", "PnfsManager")
	r["pnfsid"] = strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	r["fileSize"] = rand.IntN(1 << 30)
	r["subject"] = []string{"UidPrincipal[0]"}
	return r
}

func malformedRecord() []byte {
	switch rand.IntN(3) {
	case 0:
		return []byte(`{"msgType":"transfer","cellName":`)
	case 1:
		return []byte(`{"msgType":"remove","cellName":"PnfsManager"}`)
	default:
		return []byte{0xff, 0xfe, 0xfd}
	}
}
