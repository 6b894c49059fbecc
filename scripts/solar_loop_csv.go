package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/Agrid-Dev/thermograph/internal/scenario"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

type BoundaryCommand struct {
	IterationNumber int
	Boundary        string
	Kelvin          float64
}

// SimulateSolarLoop steps the solar loop scenario and writes the panel,
// storage and air temperatures after every step, applying boundary
// commands along the way.
func SimulateSolarLoop(scenarioPath string, iterations int, filename string, commands []BoundaryCommand) error {
	spec, err := scenario.Load(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %v", err)
	}
	topo, err := scenario.Build(spec)
	if err != nil {
		return fmt.Errorf("failed to build scenario: %v", err)
	}

	params := simulation.Params{
		Step:     60 * time.Second,
		Duration: time.Duration(iterations) * 60 * time.Second,
	}
	runner, err := simulation.New("solar-loop-script", topo, params, nil)
	if err != nil {
		return fmt.Errorf("failed to create runner: %v", err)
	}

	// Create CSV file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write CSV header, each temperature column labelled with its display units
	initial := runner.Get()
	panel, _ := reading(initial.Nodes, "solar panel")
	storage, _ := reading(initial.Nodes, "fluid in storage")
	air, _ := reading(initial.Boundaries, "air")
	if err := writer.Write([]string{
		"Iteration",
		"Elapsed [s]",
		column("Panel", panel),
		column("Storage", storage),
		column("Air", air),
	}); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := range iterations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			for _, cmd := range commands {
				if cmd.IterationNumber == i+1 {
					if err := runner.SetBoundaryTemperature(cmd.Boundary, cmd.Kelvin); err != nil {
						return fmt.Errorf("failed to update boundary: %v", err)
					}
				}
			}

			if err := runner.StepOnce(); err != nil {
				return fmt.Errorf("step %d: %v", i+1, err)
			}

			snap := runner.Get()
			panel, _ := reading(snap.Nodes, "solar panel")
			storage, _ := reading(snap.Nodes, "fluid in storage")
			air, _ := reading(snap.Boundaries, "air")

			if err := writer.Write([]string{
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%.0f", snap.Elapsed),
				fmt.Sprintf("%.2f", panel.Display()),
				fmt.Sprintf("%.2f", storage.Display()),
				fmt.Sprintf("%.2f", air.Display()),
			}); err != nil {
				return fmt.Errorf("failed to write CSV record: %v", err)
			}
		}
	}

	return nil
}

func column(name string, r simulation.Reading) string {
	return fmt.Sprintf("%s [%s]", name, r.Units.Symbol())
}

func reading(rs []simulation.Reading, id string) (simulation.Reading, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return simulation.Reading{}, false
}

func main() {
	commands := []BoundaryCommand{
		{
			// evening: the air cools by ten degrees
			IterationNumber: 600,
			Boundary:        "air",
			Kelvin:          283.15,
		},
	}
	if err := SimulateSolarLoop("configs/solar_loop.yaml", 1440, "solar_loop.csv", commands); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
