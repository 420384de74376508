/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nabbar/tgen/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bind", func() {
	It("reads flag defaults before argv is parsed", func() {
		cmd := &cobra.Command{Use: "tgen"}
		get, _ := config.Bind(cmd)

		rt := get()
		Expect(rt.LogLevel).To(Equal("info"))
		Expect(rt.Grace).To(Equal(time.Duration(0)))
		Expect(rt.GraphPath).To(BeEmpty())
	})

	It("reflects parsed flags", func() {
		cmd := &cobra.Command{Use: "tgen", RunE: func(*cobra.Command, []string) error { return nil }}
		get, _ := config.Bind(cmd)

		cmd.SetArgs([]string{"--graph", "g.json", "--grace", "2s", "--log-level", "debug"})
		Expect(cmd.Execute()).To(Succeed())

		rt := get()
		Expect(rt.GraphPath).To(Equal("g.json"))
		Expect(rt.Grace).To(Equal(2 * time.Second))
		Expect(rt.LogLevel).To(Equal("debug"))
	})

	It("reflects a parsed --config path", func() {
		cmd := &cobra.Command{Use: "tgen", RunE: func(*cobra.Command, []string) error { return nil }}
		get, _ := config.Bind(cmd)

		cmd.SetArgs([]string{"--config", "tgen.yaml"})
		Expect(cmd.Execute()).To(Succeed())

		Expect(get().ConfigPath).To(Equal("tgen.yaml"))
	})
})

var _ = Describe("LoadFile", func() {
	It("is a no-op for an empty path", func() {
		cmd := &cobra.Command{Use: "tgen"}
		_, v := config.Bind(cmd)
		Expect(config.LoadFile(v, "")).To(Succeed())
	})

	It("layers a yaml config file under the flags", func() {
		dir, err := os.MkdirTemp("", "tgen-config")
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = os.RemoveAll(dir) }()

		path := filepath.Join(dir, "tgen.yaml")
		Expect(os.WriteFile(path, []byte("log-level: warn\n"), 0o600)).To(Succeed())

		cmd := &cobra.Command{Use: "tgen"}
		get, v := config.Bind(cmd)

		Expect(config.LoadFile(v, path)).To(Succeed())
		Expect(get().LogLevel).To(Equal("warn"))
	})

	It("expands a leading ~ against the home directory", func() {
		home, err := os.UserHomeDir()
		Expect(err).ToNot(HaveOccurred())

		dir, err := os.MkdirTemp(home, "tgen-config-home")
		Expect(err).ToNot(HaveOccurred())
		defer func() { _ = os.RemoveAll(dir) }()

		path := filepath.Join(dir, "tgen.yaml")
		Expect(os.WriteFile(path, []byte("log-level: error\n"), 0o600)).To(Succeed())

		tilded := filepath.Join("~", filepath.Base(dir), "tgen.yaml")

		cmd := &cobra.Command{Use: "tgen"}
		get, v := config.Bind(cmd)

		Expect(config.LoadFile(v, tilded)).To(Succeed())
		Expect(get().LogLevel).To(Equal("error"))
	})
})
