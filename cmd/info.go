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
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/notargets/gomsh/InputParameters"
	"github.com/notargets/gomsh/mesh"
	"github.com/notargets/gomsh/mesh/readers"
)

type MeshInfo struct {
	MeshFile  string
	ParamFile string
	Format    string
	Groups    bool
}

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Read one mesh file and print its statistics",
	Long: `Read one mesh file and print its statistics

gomsh info -F mesh.msh [-I params.yaml] [--format yaml]`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		mi := &MeshInfo{}
		if mi.MeshFile, err = cmd.Flags().GetString("meshFile"); err != nil {
			return
		}
		if mi.ParamFile, err = cmd.Flags().GetString("inputParametersFile"); err != nil {
			return
		}
		if mi.Format, err = cmd.Flags().GetString("format"); err != nil {
			return
		}
		if mi.Groups, err = cmd.Flags().GetBool("groups"); err != nil {
			return
		}
		return RunInfo(cmd.OutOrStdout(), mi)
	},
}

func init() {
	rootCmd.AddCommand(InfoCmd)
	InfoCmd.Flags().StringP("meshFile", "F", "", "Gmsh mesh file (.msh) to read")
	InfoCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for reader parameters like:\n\t- NodeCheck\n\t- ForceDimension")
	InfoCmd.Flags().String("format", "text", "output format, text or yaml")
	InfoCmd.Flags().BoolP("groups", "g", false, "list the element tags of every physical group")
}

// readerOptions loads the reader parameter file, if any.
func readerOptions(paramFile string) (opts []readers.Option, err error) {
	if len(paramFile) == 0 {
		return
	}
	var data []byte
	if data, err = os.ReadFile(paramFile); err != nil {
		return
	}
	rp := &InputParameters.ReaderParameters{}
	if err = rp.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", paramFile, err)
	}
	return rp.Options()
}

func RunInfo(w io.Writer, mi *MeshInfo) (err error) {
	if len(mi.MeshFile) == 0 {
		return fmt.Errorf("must supply a mesh file (-F, --meshFile) in Gmsh (.msh) format")
	}
	var opts []readers.Option
	if opts, err = readerOptions(mi.ParamFile); err != nil {
		return
	}
	var m *mesh.Mesh
	if m, err = readers.ReadMeshFile(mi.MeshFile, opts...); err != nil {
		return
	}
	switch mi.Format {
	case "", "text":
		m.PrintStatistics(w)
	case "yaml":
		var out []byte
		if out, err = yaml.Marshal(m.Summary()); err != nil {
			return
		}
		_, err = w.Write(out)
	default:
		return fmt.Errorf("unknown output format %q, want text or yaml", mi.Format)
	}
	if err != nil || !mi.Groups {
		return
	}
	for _, pn := range m.PhysicalNames() {
		fmt.Fprintf(w, "%s (%d,%d): %v\n", pn.Name, pn.Dim, pn.Tag, m.ElementsInGroup(pn.Dim, pn.Tag))
	}
	return
}
