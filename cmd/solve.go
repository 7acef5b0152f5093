/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/arungoooo112/gismo/InputParameters"
	"github.com/arungoooo112/gismo/model_problems/Poisson1D"
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the 1D model problem with the IETI preconditioner",
	Long: `
Decomposes a 1D reaction-diffusion model problem into subdomains tied
together by Lagrange multipliers, then solves the multiplier system
with BiCGStab preconditioned by the scaled Dirichlet preconditioner,

gismo solve -k 8 -n 32 --scaling multiplicity`,
	Run: func(cmd *cobra.Command, args []string) {
		sp := &InputParameters.SolverParameters{Title: "1D IETI model problem"}
		if input, _ := cmd.Flags().GetString("input"); input != "" {
			data, err := os.ReadFile(input)
			if err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
			if err = sp.Parse(data); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		} else {
			sp.Subdomains, _ = cmd.Flags().GetInt("subdomains")
			sp.ElementsPerSub, _ = cmd.Flags().GetInt("elements")
			sp.Tolerance, _ = cmd.Flags().GetFloat64("tol")
			sp.MaxIterations, _ = cmd.Flags().GetInt("maxiter")
			sp.Scaling, _ = cmd.Flags().GetString("scaling")
			sp.Verbose, _ = cmd.Flags().GetBool("verbose")
			if err := sp.Validate(); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		}
		sp.Print()
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		RunSolve(sp)
	},
}

func RunSolve(sp *InputParameters.SolverParameters) {
	res, err := Poisson1D.Run(sp.Subdomains, sp.ElementsPerSub, sp.Tolerance,
		sp.MaxIterations, sp.Scaling, sp.Verbose)
	if err != nil {
		fmt.Println(err)
	}
	fmt.Printf("converged\t\t= %v\n", res.Converged)
	fmt.Printf("iterations\t\t= %d\n", res.Iterations)
	fmt.Printf("relative residual\t= %.3e\n", res.ResidualNorm)
	fmt.Printf("interface jump\t\t= %.3e\n", res.JumpNorm)
	fmt.Printf("max error vs exact\t= %.3e\n", res.MaxError)
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().IntP("subdomains", "k", 4, "number of subdomains")
	solveCmd.Flags().IntP("elements", "n", 16, "number of elements per subdomain")
	solveCmd.Flags().Float64("tol", 1.e-10, "relative residual tolerance")
	solveCmd.Flags().Int("maxiter", 200, "maximum number of solver iterations")
	solveCmd.Flags().String("scaling", "multiplicity", "scaling policy: multiplicity, deluxe or none")
	solveCmd.Flags().String("input", "", "YAML parameter file overriding the flags")
	solveCmd.Flags().BoolP("verbose", "v", false, "print per-iteration residuals")
	solveCmd.Flags().Bool("profile", false, "write a CPU profile for the solve")
}
