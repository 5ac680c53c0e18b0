package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/stakewatch/config"
)

// MainnetStETH is the Lido stETH token contract on Ethereum mainnet.
const MainnetStETH = "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers collected by the wizard.
type Answers struct {
	APIKey      string
	Account     string
	Contract    string
	HistoryPath string
	Schedule    string
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := Answers{
		Contract:    MainnetStETH,
		HistoryPath: "results.csv",
	}
	var confirm bool

	showStep := func(step string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("STAKEWATCH CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(step))
	}

	showStep("STEP 1: LEDGER ACCESS")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Snapshots are read through an Alchemy mainnet endpoint.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Alchemy API Key").
				Value(&a.APIKey).
				EchoMode(huh.EchoModePassword).
				Validate(required("api key")),
			huh.NewInput().
				Title("stETH Contract Address").
				Description("Mainnet default is prefilled").
				Value(&a.Contract).
				Validate(ValidateAddress),
		),
	).Run()
	if err != nil {
		return err
	}

	showStep("STEP 2: ACCOUNT")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account Address").
				Description("Holder whose balance and shares are tracked").
				Value(&a.Account).
				Validate(ValidateAddress),
		),
	).Run()
	if err != nil {
		return err
	}

	showStep("STEP 3: STORAGE AND SCHEDULE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("History CSV Path").
				Value(&a.HistoryPath).
				Validate(required("history path")),
			huh.NewInput().
				Title("Schedule").
				Description("Cron expression such as '@every 1h' or '0 * * * *'; leave empty to run once per invocation").
				Value(&a.Schedule).
				Validate(ValidateSchedule),
		),
	).Run()
	if err != nil {
		return err
	}

	showStep("FINAL CONFIRMATION")
	schedule := a.Schedule
	if schedule == "" {
		schedule = "run once"
	}
	summary := fmt.Sprintf("Account: %s\nContract: %s\nHistory: %s\nSchedule: %s\n", a.Account, a.Contract, a.HistoryPath, schedule)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := WriteConfig(path, a); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nRun: stakewatch --config %s", path, path)))
	return nil
}

// WriteConfig stores answers as a yaml config readable by config.Get.
func WriteConfig(path string, a Answers) error {
	tmp := config.ConfigTmp{
		APIKey:      strings.TrimSpace(a.APIKey),
		Account:     strings.TrimSpace(a.Account),
		Contract:    strings.TrimSpace(a.Contract),
		HistoryPath: strings.TrimSpace(a.HistoryPath),
		Schedule:    strings.TrimSpace(a.Schedule),
	}

	data, err := yaml.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	// the file holds an api key
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ValidateAddress accepts a 20-byte hex address with or without 0x prefix.
func ValidateAddress(s string) error {
	if !common.IsHexAddress(strings.TrimSpace(s)) {
		return fmt.Errorf("must be a hex address like %s", MainnetStETH)
	}
	return nil
}

// ValidateSchedule accepts an empty string or a standard cron expression.
func ValidateSchedule(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}
