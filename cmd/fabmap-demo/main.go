// Command fabmap-demo runs FabMap place-recognition inference over a CSV
// corpus of bag-of-words descriptors, printing the resulting match table.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fumin/fabmap"
)

var (
	flagConfig = flag.String("c", `{
		"Variant": "exhaustive",
		"TrainData": "train.csv",
		"TestData": "test.csv",
		"ChowLiu": true,
		"MeanField": true,
		"NumSamples": 100,
		"Seed": 1,
		"LUTPrecision": 4,
		"RejectionThreshold": 0.01,
		"PsGd": 1e-6,
		"BisectionStart": 50,
		"BisectionIts": 100,
		"MotionModel": false,
		"Pnew": 0.9,
		"SFactor": 0.99,
		"MBias": 0.5
		}`, "configuration")
)

// Config mirrors the shape of an Engine's construction parameters plus the
// two CSV corpora to run it over.
type Config struct {
	Variant            string
	TrainData          string
	TestData           string
	ChowLiu            bool
	MeanField          bool
	NumSamples         int
	Seed               int64
	LUTPrecision       int
	RejectionThreshold float64
	PsGd               float64
	BisectionStart     float64
	BisectionIts       int
	MotionModel        bool
	Pnew               float64
	SFactor            float64
	MBias              float64
}

func parseConfig() (Config, error) {
	config := Config{}
	if err := json.Unmarshal([]byte(*flagConfig), &config); err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	configB, err := json.Marshal(config)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	log.Printf("config: %s", configB)
	return config, nil
}

// readDescriptors parses a CSV file where each row is a bag-of-words
// descriptor: one comma-separated float per vocabulary word.
func readDescriptors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	out := make([][]float32, 0, len(records))
	for _, r := range records {
		row := make([]float32, len(r))
		for i, cell := range r {
			v, err := strconv.ParseFloat(cell, 32)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("%+v", r))
			}
			row[i] = float32(v)
		}
		out = append(out, row)
	}
	return out, nil
}

// buildEngine assembles a simple linear-chain Chow-Liu tree (word q's parent
// is q-1, the root's parent is itself) with the same detector-independent
// marginal and conditional probabilities for every word, and uses it to
// construct the variant named in config. It exists so the demo has
// something concrete to run against without a separately trained tree file.
func buildEngine(config Config, vocabSize int) (*fabmap.Engine, error) {
	parent := make([]float64, vocabSize)
	pZ := make([]float64, vocabSize)
	pZgZpTrue := make([]float64, vocabSize)
	pZgZpFalse := make([]float64, vocabSize)
	for q := 0; q < vocabSize; q++ {
		parent[q] = float64(q)
		if q > 0 {
			parent[q] = float64(q - 1)
		}
		pZ[q] = 0.1
		pZgZpTrue[q] = 0.5
		pZgZpFalse[q] = 0.05
	}
	clTree := fabmap.ClTreeFromRows(parent, pZ, pZgZpTrue, pZgZpFalse)

	flags := fabmap.Flags(0)
	if config.ChowLiu {
		flags |= fabmap.ChowLiu
	} else {
		flags |= fabmap.NaiveBayes
	}
	if config.MeanField {
		flags |= fabmap.MeanField
	} else {
		flags |= fabmap.Sampled
	}
	if config.MotionModel {
		flags |= fabmap.MotionModel
	}
	if config.Variant == "index" {
		flags |= fabmap.Sampled
	}

	params := fabmap.Params{
		ClTree:     clTree,
		PzGe:       0.39,
		PzGNe:      0.0,
		Flags:      flags,
		NumSamples: config.NumSamples,
		Seed:       config.Seed,
	}

	var e *fabmap.Engine
	var err error
	switch config.Variant {
	case "exhaustive":
		e, err = fabmap.NewExhaustive(params)
	case "lut":
		e, err = fabmap.NewLUT(params, config.LUTPrecision)
	case "fbo":
		e, err = fabmap.NewFBO(params, config.RejectionThreshold, config.PsGd, config.BisectionStart, config.BisectionIts)
	case "index":
		e, err = fabmap.NewInvertedIndex(params)
	default:
		return nil, errors.Wrap(fmt.Errorf("unknown variant %q", config.Variant), "")
	}
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if config.MotionModel {
		if err := e.SetMotionParams(config.Pnew, config.SFactor, config.MBias); err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return e, nil
}

func run(config Config) error {
	train, err := readDescriptors(config.TrainData)
	if err != nil {
		return errors.Wrap(err, "")
	}
	test, err := readDescriptors(config.TestData)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if len(train) == 0 && len(test) == 0 {
		return errors.Wrap(fmt.Errorf("both corpora are empty"), "")
	}
	vocabSize := len(test[0])

	e, err := buildEngine(config, vocabSize)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := e.AddTraining(train...); err != nil {
		return errors.Wrap(err, "")
	}

	matches, err := e.Compare(test, true, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}

	fmt.Printf("query,place,likelihood,match\n")
	for _, m := range matches {
		fmt.Printf("%d,%d,%f,%f\n", m.QueryIdx, m.PlaceIdx, m.Likelihood, m.Match)
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	config, err := parseConfig()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := run(config); err != nil {
		log.Fatalf("%+v", err)
	}
}
