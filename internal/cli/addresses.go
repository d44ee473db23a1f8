package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/svc/addresssvc"
)

func bindAddressFlags(cmd *cobra.Command, in *domain.AddressInput) {
	cmd.Flags().StringVar(&in.RecipientName, "recipient", "", "recipient name")
	cmd.Flags().StringVar(&in.PhoneNumber, "phone", "", "recipient phone number")
	cmd.Flags().StringVar(&in.AddressLine1, "line1", "", "first address line")
	cmd.Flags().StringVar(&in.AddressLine2, "line2", "", "second address line")
	cmd.Flags().StringVar(&in.SubDistrict, "sub-district", "", "sub-district")
	cmd.Flags().StringVar(&in.District, "district", "", "district")
	cmd.Flags().StringVar(&in.Province, "province", "", "province")
	cmd.Flags().StringVar(&in.PostalCode, "postal-code", "", "5-digit postal code")
}

// loadBook returns the user's address book filled from the backend.
func loadBook(ctx context.Context, app *App) (*addresssvc.AddressBook, error) {
	book := addresssvc.NewAddressBook(app.Addresses)
	if err := book.Load(ctx); err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}

	return book, nil
}

func printBook(app *App, book *addresssvc.AddressBook) error {
	addresses := book.Addresses()

	return app.out.emit(addresses, func(w io.Writer) {
		row(w, "ID", "", "RECIPIENT", "PHONE", "ADDRESS")

		for _, a := range addresses {
			mark := ""
			if a.IsDefault {
				mark = "default"
			}

			lines := []string{a.AddressLine1}
			if a.AddressLine2 != "" {
				lines = append(lines, a.AddressLine2)
			}

			lines = append(lines, a.SubDistrict, a.District, a.Province, a.PostalCode)

			row(w, a.ID, mark, a.RecipientName, a.PhoneNumber, strings.Join(lines, ", "))
		}
	})
}

func newAddressesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "addresses",
		Aliases:           []string{"address"},
		Short:             "Manage shipping addresses",
		PersistentPreRunE: requireRole(app),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List your addresses",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				book, err := loadBook(cmd.Context(), app)
				if err != nil {
					return err
				}

				return printBook(app, book)
			},
		},
		newAddressesAddCommand(app),
		newAddressesEditCommand(app),
		&cobra.Command{
			Use:     "rm ADDRESS_ID",
			Aliases: []string{"remove"},
			Short:   "Delete an address",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				book, err := loadBook(cmd.Context(), app)
				if err != nil {
					return err
				}

				if err := book.Remove(cmd.Context(), domain.ID(args[0])); err != nil {
					return fmt.Errorf("remove address: %w", err)
				}

				return printBook(app, book)
			},
		},
		&cobra.Command{
			Use:   "default ADDRESS_ID",
			Short: "Make an address the default",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				book, err := loadBook(cmd.Context(), app)
				if err != nil {
					return err
				}

				if _, err := book.SetDefault(cmd.Context(), domain.ID(args[0])); err != nil {
					return fmt.Errorf("set default address: %w", err)
				}

				return printBook(app, book)
			},
		},
	)

	return cmd
}

func newAddressesAddCommand(app *App) *cobra.Command {
	var (
		in         domain.AddressInput
		setDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := loadBook(cmd.Context(), app)
			if err != nil {
				return err
			}

			address, err := book.Add(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("add address: %w", err)
			}

			if setDefault && !address.IsDefault {
				if _, err := book.SetDefault(cmd.Context(), address.ID); err != nil {
					return fmt.Errorf("set default address: %w", err)
				}
			}

			return printBook(app, book)
		},
	}

	bindAddressFlags(cmd, &in)
	cmd.Flags().BoolVar(&setDefault, "default", false, "make it the default address")

	return cmd
}

func newAddressesEditCommand(app *App) *cobra.Command {
	var in domain.AddressInput

	cmd := &cobra.Command{
		Use:   "edit ADDRESS_ID",
		Short: "Replace the fields of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBook(cmd.Context(), app)
			if err != nil {
				return err
			}

			if _, err := book.Update(cmd.Context(), domain.ID(args[0]), in); err != nil {
				return fmt.Errorf("update address: %w", err)
			}

			return printBook(app, book)
		},
	}

	bindAddressFlags(cmd, &in)

	return cmd
}
