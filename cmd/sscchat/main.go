// Command sscchat is a terminal demo host for the peer package: it
// drives one end of a serverless encrypted chat session, printing the
// out-of-band envelope as text and as an ASCII QR block and reading the
// counterpart's envelope back from stdin.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"rsc.io/qr"

	"ssc.chat/peer"
	"ssc.chat/wordlist"
)

var (
	mode   = flag.String("mode", "offer", "offer or accept")
	bundle = flag.Bool("bundle", false, "use bundle mode instead of trickle")
)

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	session := peer.NewSession(nil)
	in := bufio.NewReader(os.Stdin)

	switch *mode {
	case "offer":
		runOfferer(session, in)
	case "accept":
		runAcceptor(session, in)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "sscchat drives one end of a serverless encrypted chat session.\n\n")
	fmt.Fprintf(w, "usage:\n\n  %s -mode=offer|accept [-bundle]\n\nflags:\n", os.Args[0])
	flag.PrintDefaults()
}

func runOfferer(s *peer.Session, in *bufio.Reader) {
	var out string
	var err error
	if *bundle {
		var b peer.Bundle
		b, err = s.CreateOfferBundle()
		if err == nil {
			out, err = peer.EncodeBundle(b)
		}
	} else {
		var env peer.SDPEnvelope
		env, err = s.CreateOfferTrickle()
		if err == nil {
			out, err = peer.EncodeSDPEnvelope(env)
		}
	}
	if err != nil {
		fatalf("could not create offer: %v", err)
	}
	printEnvelope(out)

	answer := readLine(in, "paste the answer envelope: ")
	if *bundle {
		b, err := peer.DecodeBundle(answer)
		if err != nil {
			fatalf("could not decode answer: %v", err)
		}
		if err := s.ApplyAnswerBundle(b); err != nil {
			fatalf("could not apply answer: %v", err)
		}
	} else {
		env, err := peer.DecodeSDPEnvelope(answer)
		if err != nil {
			fatalf("could not decode answer: %v", err)
		}
		if err := s.ApplyAnswerTrickle(env); err != nil {
			fatalf("could not apply answer: %v", err)
		}
	}

	chat(s, in)
}

func runAcceptor(s *peer.Session, in *bufio.Reader) {
	offer := readLine(in, "paste the offer envelope: ")

	var out string
	var err error
	if *bundle {
		b, derr := peer.DecodeBundle(offer)
		if derr != nil {
			fatalf("could not decode offer: %v", derr)
		}
		var answer peer.Bundle
		answer, err = s.AcceptOfferBundle(b)
		if err == nil {
			out, err = peer.EncodeBundle(answer)
		}
	} else {
		env, derr := peer.DecodeSDPEnvelope(offer)
		if derr != nil {
			fatalf("could not decode offer: %v", derr)
		}
		var answer peer.SDPEnvelope
		answer, err = s.AcceptOfferTrickle(env)
		if err == nil {
			out, err = peer.EncodeSDPEnvelope(answer)
		}
	}
	if err != nil {
		fatalf("could not accept offer: %v", err)
	}
	printEnvelope(out)

	chat(s, in)
}

// chat prints events as they arrive and lets the operator type
// plaintext lines to send, until the session disconnects. A line
// starting with "/verify " is not sent; it is checked against the last
// phrase printed for EventConnected instead, see verifyPhrase.
func chat(s *peer.Session, in *bufio.Reader) {
	var lastPhrase string
	go func() {
		for ev := range s.Events() {
			switch ev.Topic {
			case peer.EventConnected:
				sas, _ := s.Fingerprint()
				raw, _ := hex.DecodeString(sas)
				lastPhrase = wordlist.Phrase(raw)
				fmt.Printf("[connected] verify this phrase with your peer, e.g. /verify %s\n", lastPhrase)
			case peer.EventMessage:
				fmt.Printf("< %s\n", ev.Payload)
			default:
				fmt.Printf("[%s]\n", ev.Topic)
			}
		}
	}()

	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		if typed, ok := strings.CutPrefix(line, "/verify "); ok {
			verifyPhrase(typed, lastPhrase)
			continue
		}
		if err := s.SendText(line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
}

// verifyPhrase compares a phrase the operator typed (possibly with
// abbreviated words, as read aloud by the peer) against the session's
// own phrase. Each typed word is expanded against the word list before
// comparison, so "acr" matches "acre" without the operator needing to
// spell every word out in full.
func verifyPhrase(typed, want string) {
	if want == "" {
		fmt.Println("no phrase to verify against yet")
		return
	}
	typedWords := strings.Split(strings.TrimSpace(typed), "-")
	wantWords := strings.Split(want, "-")
	if len(typedWords) != len(wantWords) {
		fmt.Println("MISMATCH: wrong number of words")
		return
	}
	for i, w := range typedWords {
		expanded := wordlist.Match(strings.ToLower(strings.TrimSpace(w)))
		if expanded == "" || expanded != wantWords[i] {
			fmt.Printf("MISMATCH at word %d\n", i+1)
			return
		}
	}
	fmt.Println("MATCH: phrases agree")
}

func readLine(in *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// printEnvelope writes the envelope both as raw text (for copy/paste)
// and as an ASCII-block QR code.
func printEnvelope(code string) {
	fmt.Printf("%s\n", code)

	qrcode, err := qr.Encode(code, qr.L)
	if err != nil {
		return
	}
	for y := 0; y < qrcode.Size; y += 2 {
		for x := 0; x < qrcode.Size; x++ {
			switch {
			case qrcode.Black(x, y) && qrcode.Black(x, y+1):
				fmt.Print(" ")
			case qrcode.Black(x, y):
				fmt.Print("▄")
			case qrcode.Black(x, y+1):
				fmt.Print("▀")
			default:
				fmt.Print("█")
			}
		}
		fmt.Println()
	}
}
