// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command coinselect evaluates coin and asset selection requests. Each
// request is a JSON file naming the selection mode, the candidate UTXOs and
// the requested outputs; without files a single request is read from
// standard input. The outcomes are written to standard output as a JSON
// array in request order.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/coinselect"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"
)

// stdinSource is the source name of a request read from standard input.
const stdinSource = "-"

// errSelectionFailed is returned when at least one request failed.
var errSelectionFailed = errors.New("one or more selections failed")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		// Help was requested, exit normally.
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		if errors.Is(err, errShowSubsystems) {
			os.Exit(0)
		}

		// go-flags already printed its own errors.
		if flagErr == nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}

		os.Exit(1)
	}
}

// run loads the config, evaluates every request and writes the outcomes.
func run(args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, files, err := loadConfig(args)
	if err != nil {
		return err
	}
	defer closeLogRotator()

	selector, err := coinselect.NewSelector(cfg.selector)
	if err != nil {
		return err
	}

	log.Infof("Evaluating %d request(s) with %d job(s), default fee "+
		"rate %v", max(len(files), 1), cfg.Jobs, cfg.feeRate)

	var responses []*selectionResponse
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("unable to read request: %w", err)
		}

		responses = []*selectionResponse{
			evaluateData(selector, stdinSource, data, cfg.feeRate),
		}
	} else {
		responses, err = evaluateFiles(
			context.Background(), selector, files, cfg,
		)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(responses); err != nil {
		return fmt.Errorf("unable to write responses: %w", err)
	}

	for _, resp := range responses {
		if !resp.OK {
			return errSelectionFailed
		}
	}

	return nil
}

// evaluateFiles evaluates the request files concurrently, bounded by the
// configured number of jobs. The responses keep the order of the files.
func evaluateFiles(ctx context.Context, s *coinselect.Selector,
	files []string, cfg *config) ([]*selectionResponse, error) {

	responses := make([]*selectionResponse, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			// #nosec G304 -- request files are named by the user.
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("unable to read %s: %w", file, err)
			}

			responses[i] = evaluateData(s, file, data, cfg.feeRate)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return responses, nil
}

// evaluateData decodes and evaluates a single request. Decoding and
// selection failures are reported in the response.
func evaluateData(s *coinselect.Selector, source string, data []byte,
	defaultRate btcunit.SatPerByte) *selectionResponse {

	req, err := decodeRequest(data)
	if err != nil {
		log.Warnf("Request %s: %v", source, err)

		return &selectionResponse{Source: source, Error: failure(err)}
	}

	resp := evaluate(s, req, defaultRate)
	resp.Source = source

	if !resp.OK {
		log.Warnf("Request %s (%s) failed: %s", source, req.Mode,
			resp.Error.Message)

		return resp
	}

	log.Infof("Request %s (%s): %d inputs, %d outputs, fee %v", source,
		req.Mode, len(resp.Inputs), len(resp.Outputs), formatFee(resp.Fee))

	return resp
}

// formatFee renders a fee in BTC when it fits, and in base units otherwise.
func formatFee(fee *btcunit.Amount) string {
	if fee == nil {
		return "n/a"
	}

	btc, err := fee.ToBTC()
	if err != nil {
		return fee.String()
	}

	return fmt.Sprintf("%v (%v)", btc, btc.Format(btcutil.AmountSatoshi))
}
