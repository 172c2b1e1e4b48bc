package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/session"
)

var custodiaCmd = &cobra.Command{
	Use:   "custodia",
	Short: "Print the current custody snapshot",
	Long: `Logs in to the backend with INVENTARIO_CORREO / INVENTARIO_CONTRASENA and prints
which responsible holds each asset. --responsable narrows the table to one person.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := load()
		if err != nil {
			return err
		}
		responsible, _ := cmd.Flags().GetInt64("responsable")

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Backend.Timeout)
		defer cancel()

		sess := session.New()
		client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, sess, log)
		login, err := client.Login(ctx, os.Getenv("INVENTARIO_CORREO"), os.Getenv("INVENTARIO_CONTRASENA"))
		if err != nil {
			return fmt.Errorf("login: %s", backend.Message(err))
		}
		sess.Start(login.AccessToken, login.User)
		defer func() { _ = client.Logout(context.Background()) }()

		rows, err := client.CurrentCustody(ctx)
		if err != nil {
			return fmt.Errorf("custody snapshot: %s", backend.Message(err))
		}
		assets, err := client.Assets(ctx)
		if err != nil {
			return fmt.Errorf("assets: %s", backend.Message(err))
		}
		printCustody(cmd.OutOrStdout(), rows, assets, domain.ID(responsible))
		fmt.Fprintf(cmd.OutOrStdout(), "generated %s\n", time.Now().In(cfg.Location()).Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	custodiaCmd.Flags().Int64("responsable", 0, "only rows held by this responsible id")
}

func printCustody(w io.Writer, rows []domain.CustodyRow, assets []domain.Asset, responsible domain.ID) {
	byID := make(map[domain.ID]domain.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ResponsibleID != rows[j].ResponsibleID {
			return rows[i].ResponsibleID < rows[j].ResponsibleID
		}
		return rows[i].AssetID < rows[j].AssetID
	})

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Responsable", "Área", "Código", "Bien", "Categoría", "Asignación"})
	table.SetRowLine(true)
	table.SetRowSeparator("-")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rows {
		if responsible.Valid() && r.ResponsibleID != responsible {
			continue
		}
		a := byID[r.AssetID]
		name := r.ResponsibleID.String()
		if r.Responsible != nil {
			name = r.Responsible.FullName()
		}
		code := a.Code
		if code == "" {
			code = "S/C"
		}
		table.Append([]string{name, r.DepartmentID.String(), code, a.Name, string(a.Category), r.AssignmentID.String()})
	}
	table.Render()
}
