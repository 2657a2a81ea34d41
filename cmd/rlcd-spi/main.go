package main

import (
	"flag"
	"fmt"
	"log"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/rlcd/conn"
)

func main() {
	busFlag := flag.String("bus", "", "SPI port name (default: first available)")
	speed := 10 * physic.MegaHertz
	flag.Var(&speed, "speed", "SPI clock speed")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatalln("host init failed: ", err)
	}

	c, err := conn.OpenSPI(*busFlag, speed, nil)
	if err != nil {
		log.Fatalln("open failed: ", err)
	}
	fmt.Println("connected using", c)

	// A NOP is ignored by the controller, it only exercises the bus.
	if err = c.Select(); err != nil {
		log.Fatalln("select failed: ", err)
	}
	if err = c.TransferByte(0x00); err != nil {
		_ = c.Deselect()
		log.Fatalln("write failed: ", err)
	}
	if err = c.Deselect(); err != nil {
		log.Fatalln("deselect failed: ", err)
	}
	if err = c.Close(); err != nil {
		log.Fatalln("close failed: ", err)
	}
}
