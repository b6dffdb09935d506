// Package wizard provides an interactive wizard that writes a starter task file.
//
// RunWizard asks for the AWS region, one stack and optional job and workflow
// tasks using charmbracelet/huh forms. BuildConfig turns the answers into a
// config.Config and WriteConfig writes it as YAML with a short header.
package wizard
