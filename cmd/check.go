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
	"io"

	"github.com/spf13/cobra"

	"github.com/notargets/gomsh/mesh/readers"
)

// CheckCmd represents the check command
var CheckCmd = &cobra.Command{
	Use:   "check [mesh files]",
	Short: "Validate one or more mesh files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paramFile, err := cmd.Flags().GetString("inputParametersFile")
		if err != nil {
			return err
		}
		return RunCheck(cmd.OutOrStdout(), paramFile, args)
	},
}

func init() {
	rootCmd.AddCommand(CheckCmd)
	CheckCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for reader parameters")
}

// RunCheck reads every file and prints one line per file. The returned
// error joins the failures.
func RunCheck(w io.Writer, paramFile string, files []string) (err error) {
	var opts []readers.Option
	if opts, err = readerOptions(paramFile); err != nil {
		return
	}
	meshes, err := readers.ReadMeshFiles(files, opts...)
	for i, m := range meshes {
		if m == nil {
			fmt.Fprintf(w, "FAIL %s\n", files[i])
			continue
		}
		fmt.Fprintf(w, "OK   %s: version %s, dimension %d, %d nodes, %d elements\n",
			files[i], m.Format().Version, m.Dimension(), m.NumNodes(), m.NumElements())
	}
	return
}
