package main

import (
	"context"

	"github.com/flowlearn/pawfessor/core/profile"
)

func (cli *commandLine) addProfile(name, email, role, pwd string) error {
	p, err := cli.profileSvc.Create(context.Background(), profile.NewProfile{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	cli.printf("created %s profile %s (%s)\n", p.Role, p.Email, p.ID)
	return nil
}

func (cli *commandLine) setPassword(email, pwd string) error {
	if err := cli.profileSvc.SetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	cli.printf("password updated\n")
	return nil
}
